// Package domain defines the core entities of quanswer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Example: A question asked against a context passage
//   - ScoredTokens: Raw start/end logits with their alignment
//   - TokenScores: Per-word inclusion probabilities and spans
//   - Result: Answers and token scores for one Example
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

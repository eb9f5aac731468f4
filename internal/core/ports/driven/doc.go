// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ModelLoader: Prepares and opens question-answering models
//   - QAModel: Scores token sequences with start/end logits
//   - Tokenizer: Splits text into model tokens
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ResultCache: Reuses results of previously answered examples.
//   - RunStore: Keeps a history of answered batches.
//   - CacheMaintainer: Inspects and prunes the result cache.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

// Package scoring turns raw start/end logits of an extractive
// question-answering model into word-level answer probabilities.
//
// Two steps run per request:
//
//   - Alignment resolution maps every scored token to the context word it
//     belongs to and every word to its character span. Fast tokenizers
//     supply an offset table, slow tokenizers a char-to-word array.
//   - Aggregation normalizes both axes, merges sub-word tokens into words by
//     maximum, captures and strips the no-answer sentinel, and computes for
//     every word the probability that it lies inside the answer span.
//
// The package is pure: it performs no I/O and keeps no state between calls.
package scoring

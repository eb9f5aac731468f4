package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent question-answering failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested model or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlignment indicates the score vectors and the alignment source disagree
	// on the number of tokens. This usually means the scoring model and the
	// tokenizer come from different versions.
	ErrAlignment = errors.New("alignment mismatch")

	// ErrModelUnavailable indicates no question-answering model could be loaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrRuntimeUnavailable indicates the inference runtime library is missing.
	ErrRuntimeUnavailable = errors.New("inference runtime unavailable")

	// ErrCacheUnavailable indicates the result cache cannot be inspected.
	ErrCacheUnavailable = errors.New("result cache unavailable")
)

// AlignmentError reports a token count mismatch between the score vectors
// and the alignment data for one request.
type AlignmentError struct {
	// Scores is the number of tokens in the score vectors.
	Scores int

	// Alignment is the number of tokens the alignment source describes.
	Alignment int
}

// Error implements the error interface.
func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment mismatch: %d scored tokens, %d aligned tokens", e.Scores, e.Alignment)
}

// Unwrap lets errors.Is match ErrAlignment.
func (e *AlignmentError) Unwrap() error {
	return ErrAlignment
}

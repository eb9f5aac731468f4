package driven

import "github.com/custodia-labs/quanswer/internal/core/domain"

// Tokenizer splits text into the sub-word tokens a model was trained on.
//
// Implementations may include:
//   - HuggingFace tokenizer.json files (WordPiece, BPE, Unigram)
//   - Test doubles splitting on whitespace
type Tokenizer interface {
	// Tokenize encodes text without special tokens.
	// Offsets are character (rune) offsets into text.
	Tokenize(text string) (domain.Encoding, error)

	// TokenID returns the vocabulary id of a token such as "[CLS]".
	TokenID(token string) (int, bool)
}

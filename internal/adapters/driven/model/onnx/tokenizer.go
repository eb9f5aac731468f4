package onnx

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// Tokenizer adapts a HuggingFace tokenizer.json to driven.Tokenizer.
// The underlying tokenizer is not safe for concurrent use, so calls are serialized.
type Tokenizer struct {
	mu sync.Mutex
	tk *tokenizer.Tokenizer
}

// NewTokenizer loads a tokenizer.json file.
// Padding and truncation configured in the file are disabled; the feature
// builder lays out the sequence itself.
func NewTokenizer(path string) (*Tokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	tk.WithPadding(nil)
	tk.WithTruncation(nil)
	return &Tokenizer{tk: tk}, nil
}

// Tokenize encodes text without special tokens. Offsets are rune offsets.
func (t *Tokenizer) Tokenize(text string) (domain.Encoding, error) {
	t.mu.Lock()
	enc, err := t.tk.EncodeSingle(text, false)
	t.mu.Unlock()
	if err != nil {
		return domain.Encoding{}, fmt.Errorf("encoding text: %w", err)
	}

	toRune := runeIndex(text)
	out := domain.Encoding{
		IDs:     append([]int(nil), enc.Ids...),
		Offsets: make([]domain.Offset, len(enc.Ids)),
		Words:   make([]int, len(enc.Ids)),
	}
	for i := range enc.Ids {
		if i < len(enc.Offsets) && len(enc.Offsets[i]) == 2 {
			out.Offsets[i] = domain.Offset{
				Start: toRune(enc.Offsets[i][0]),
				End:   toRune(enc.Offsets[i][1]),
			}
		}
		out.Words[i] = -1
		if i < len(enc.Words) {
			out.Words[i] = enc.Words[i]
		}
	}
	return out, nil
}

// TokenID looks up a vocabulary entry.
func (t *Tokenizer) TokenID(token string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tk.TokenToId(token)
}

// runeIndex returns a function mapping byte offsets in text to rune offsets.
// Offsets inside a multi-byte rune map to that rune; offsets past the end clamp.
func runeIndex(text string) func(int) int {
	if utf8.RuneCountInString(text) == len(text) {
		n := len(text)
		return func(b int) int { return max(0, min(b, n)) }
	}

	table := make([]int, len(text)+1)
	r := -1
	for b := 0; b < len(text); b++ {
		// Continuation bytes point at their rune.
		if utf8.RuneStart(text[b]) {
			r++
		}
		table[b] = max(r, 0)
	}
	table[len(text)] = utf8.RuneCountInString(text)
	return func(b int) int {
		return table[max(0, min(b, len(text)))]
	}
}

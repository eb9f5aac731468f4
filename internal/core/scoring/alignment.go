package scoring

import (
	"fmt"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// NoWord marks a token that belongs to no context word.
const NoWord = -1

// Alignment resolves scored tokens to context words.
type Alignment interface {
	// TokenCount returns the number of scored tokens the alignment describes.
	TokenCount() int

	// Resolve returns the word index of a token, or false for tokens
	// without a word (special tokens, the no-answer sentinel).
	Resolve(token int) (int, bool)

	// CharSpan returns the inclusive character span of a word.
	CharSpan(word int) (domain.Span, bool)
}

// Ensure both strategies implement the interface.
var (
	_ Alignment = (*FastAlignment)(nil)
	_ Alignment = (*SlowAlignment)(nil)
)

// NewAlignment selects the alignment strategy for the data the tokenizer supplied.
func NewAlignment(data domain.AlignmentData) (Alignment, error) {
	switch {
	case data.Fast != nil && data.Slow != nil:
		return nil, fmt.Errorf("%w: both fast and slow alignment supplied", domain.ErrInvalidInput)
	case data.Fast != nil:
		return NewFastAlignment(*data.Fast)
	case data.Slow != nil:
		return NewSlowAlignment(*data.Slow), nil
	default:
		return nil, fmt.Errorf("%w: no alignment supplied", domain.ErrInvalidInput)
	}
}

// FastAlignment resolves tokens through the offset table of a fast tokenizer.
type FastAlignment struct {
	words []int
	spans map[int]domain.Span
}

// NewFastAlignment builds the word spans from per-token offsets.
// A word spans from the first character of its first token to the last
// character of its last token.
func NewFastAlignment(data domain.FastAlignment) (*FastAlignment, error) {
	if len(data.Words) != len(data.Offsets) {
		return nil, &domain.AlignmentError{Scores: len(data.Words), Alignment: len(data.Offsets)}
	}

	spans := make(map[int]domain.Span)
	for t, w := range data.Words {
		if w < 0 {
			continue
		}
		off := data.Offsets[t]
		last := off.End - 1
		if last < off.Start {
			last = off.Start
		}
		span, ok := spans[w]
		if !ok {
			spans[w] = domain.Span{Start: off.Start, End: last}
			continue
		}
		span.Start = min(span.Start, off.Start)
		span.End = max(span.End, last)
		spans[w] = span
	}

	return &FastAlignment{words: data.Words, spans: spans}, nil
}

// TokenCount returns the number of scored tokens.
func (a *FastAlignment) TokenCount() int {
	return len(a.words)
}

// Resolve returns the word of a token.
func (a *FastAlignment) Resolve(token int) (int, bool) {
	if token < 0 || token >= len(a.words) || a.words[token] < 0 {
		return NoWord, false
	}
	return a.words[token], true
}

// CharSpan returns the span of a word.
func (a *FastAlignment) CharSpan(word int) (domain.Span, bool) {
	span, ok := a.spans[word]
	return span, ok
}

// SlowAlignment resolves tokens through the token-to-word map and the
// char-to-word array of a slow tokenizer.
type SlowAlignment struct {
	tokenToWord []int
	spans       map[int]domain.Span
}

// NewSlowAlignment builds the word spans from the char-to-word array.
// The span of word w runs from the first to the last character mapped to w.
func NewSlowAlignment(data domain.SlowAlignment) *SlowAlignment {
	spans := make(map[int]domain.Span)
	for c, w := range data.CharToWord {
		if w < 0 {
			continue
		}
		span, ok := spans[w]
		if !ok {
			span.Start = c
		}
		span.End = c
		spans[w] = span
	}
	return &SlowAlignment{tokenToWord: data.TokenToWord, spans: spans}
}

// TokenCount returns the number of scored tokens.
func (a *SlowAlignment) TokenCount() int {
	return len(a.tokenToWord)
}

// Resolve returns the word of a token.
func (a *SlowAlignment) Resolve(token int) (int, bool) {
	if token < 0 || token >= len(a.tokenToWord) || a.tokenToWord[token] < 0 {
		return NoWord, false
	}
	return a.tokenToWord[token], true
}

// CharSpan returns the span of a word.
func (a *SlowAlignment) CharSpan(word int) (domain.Span, bool) {
	span, ok := a.spans[word]
	return span, ok
}

// WordMap is the resolved alignment of one request.
type WordMap struct {
	// Words holds the word of every token, NoWord when it has none.
	Words []int

	// Spans holds the character span of every word that owns a token.
	Spans map[int]domain.Span
}

// Resolve maps n scored tokens to words. It fails with an *domain.AlignmentError
// when the alignment describes a different number of tokens.
func Resolve(a Alignment, n int) (*WordMap, error) {
	if a.TokenCount() != n {
		return nil, &domain.AlignmentError{Scores: n, Alignment: a.TokenCount()}
	}

	wm := &WordMap{
		Words: make([]int, n),
		Spans: make(map[int]domain.Span),
	}
	for t := range n {
		w, ok := a.Resolve(t)
		if !ok {
			wm.Words[t] = NoWord
			continue
		}
		wm.Words[t] = w
		if _, seen := wm.Spans[w]; seen {
			continue
		}
		span, ok := a.CharSpan(w)
		if !ok {
			return nil, fmt.Errorf("%w: word %d has no character span", domain.ErrInvalidInput, w)
		}
		wm.Spans[w] = span
	}
	return wm, nil
}

// Package features converts a question and its context into a model input
// and the scored token axis the scoring core consumes.
//
// The scored axis holds the no-answer sentinel (the classification token)
// when enabled, followed by every context token in order. Question tokens
// and the remaining special tokens never reach the scoring core.
package features

import (
	"fmt"
	"unicode"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// noWord marks positions that belong to no context word.
const noWord = -1

// Options controls how a feature is built.
type Options struct {
	// Profile is the input layout of the model.
	Profile domain.ModelProfile

	// Sentinel keeps the classification token as the no-answer position.
	Sentinel bool

	// Slow splits the context on whitespace and aligns through a
	// char-to-word array instead of the tokenizer's offset table.
	Slow bool
}

// Feature is the encoded form of one example.
type Feature struct {
	// Input is the sequence fed to the model.
	Input domain.ModelInput

	// Positions lists the input positions that make up the scored axis.
	Positions []int

	// Sentinel is the scored index of the no-answer position, or domain.NoSentinel.
	Sentinel int

	// Offsets holds the character offsets of every scored token.
	// The sentinel has a zero offset.
	Offsets []domain.Offset

	// Alignment maps scored tokens back to context words.
	Alignment domain.AlignmentData

	// Truncated reports whether context tokens were dropped to fit the model.
	Truncated bool
}

// contextToken is one sub-word token of the context.
type contextToken struct {
	id     int
	word   int
	offset domain.Offset
}

// Build encodes an example for a model.
func Build(tok driven.Tokenizer, ex domain.Example, opts Options) (*Feature, error) {
	profile := opts.Profile
	cls, ok := tok.TokenID(profile.ClsToken)
	if !ok {
		return nil, fmt.Errorf("%w: tokenizer has no %q token", domain.ErrInvalidInput, profile.ClsToken)
	}
	sep, ok := tok.TokenID(profile.SepToken)
	if !ok {
		return nil, fmt.Errorf("%w: tokenizer has no %q token", domain.ErrInvalidInput, profile.SepToken)
	}

	question, err := tok.Tokenize(ex.Question)
	if err != nil {
		return nil, fmt.Errorf("tokenize question: %w", err)
	}

	var ctxTokens []contextToken
	var charToWord []int
	if opts.Slow {
		ctxTokens, charToWord, err = slowContextTokens(tok, ex.Context)
	} else {
		ctxTokens, err = fastContextTokens(tok, ex.Context)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenize context: %w", err)
	}

	specials := 3
	if profile.DoubleSeparator {
		specials++
	}
	budget := len(ctxTokens)
	if profile.MaxSeqLen > 0 {
		budget = profile.MaxSeqLen - question.Len() - specials
		if budget <= 0 {
			return nil, fmt.Errorf("%w: question of %d tokens leaves no room for context in %d",
				domain.ErrInvalidInput, question.Len(), profile.MaxSeqLen)
		}
	}

	padID := 0
	if id, ok := tok.TokenID(profile.PadToken); ok {
		padID = id
	}

	f := &Feature{Sentinel: domain.NoSentinel}
	if len(ctxTokens) > budget {
		logger.Warn("Context truncated from %d to %d tokens", len(ctxTokens), budget)
		ctxTokens = ctxTokens[:budget]
		f.Truncated = true
	}

	seq := assemble(sequenceIDs{cls: cls, sep: sep, pad: padID}, question.IDs, ctxTokens, profile)
	f.Input = seq.input

	words := make([]int, 0, len(ctxTokens)+1)
	if opts.Sentinel {
		f.Sentinel = 0
		f.Positions = append(f.Positions, seq.clsPos)
		f.Offsets = append(f.Offsets, domain.Offset{})
		words = append(words, noWord)
	}
	for i, ct := range ctxTokens {
		f.Positions = append(f.Positions, seq.contextPos+i)
		f.Offsets = append(f.Offsets, ct.offset)
		words = append(words, ct.word)
	}

	if opts.Slow {
		f.Alignment.Slow = &domain.SlowAlignment{TokenToWord: words, CharToWord: charToWord}
	} else {
		f.Alignment.Fast = &domain.FastAlignment{Words: words, Offsets: f.Offsets}
	}
	return f, nil
}

// Scored gathers the model logits of the scored axis.
// It fails with an *domain.AlignmentError when the model returned a
// different number of positions than the input holds.
func (f *Feature) Scored(start, end []float32) (domain.ScoredTokens, error) {
	n := f.Input.Len()
	if len(start) != n {
		return domain.ScoredTokens{}, &domain.AlignmentError{Scores: len(start), Alignment: n}
	}
	if len(end) != n {
		return domain.ScoredTokens{}, &domain.AlignmentError{Scores: len(end), Alignment: n}
	}

	st := domain.ScoredTokens{
		Start:     make([]float64, len(f.Positions)),
		End:       make([]float64, len(f.Positions)),
		Sentinel:  f.Sentinel,
		Alignment: f.Alignment,
	}
	for i, pos := range f.Positions {
		st.Start[i] = float64(start[pos])
		st.End[i] = float64(end[pos])
	}
	return st, nil
}

// sequenceIDs are the special token ids used to lay out a sequence.
type sequenceIDs struct {
	cls int
	sep int
	pad int
}

// sequence is an assembled model input with the positions of interest.
type sequence struct {
	input      domain.ModelInput
	clsPos     int
	contextPos int
}

// assemble lays out [CLS] a [SEP] ([SEP]) b [SEP] where a is the question
// (or the context when ContextFirst is set), then pads up to MaxSeqLen when
// PadToMax is set.
func assemble(special sequenceIDs, question []int, ctxTokens []contextToken, profile domain.ModelProfile) sequence {
	ctxIDs := make([]int, len(ctxTokens))
	for i, ct := range ctxTokens {
		ctxIDs[i] = ct.id
	}

	first, second := question, ctxIDs
	if profile.ContextFirst {
		first, second = ctxIDs, question
	}

	ids := []int{special.cls}
	ids = append(ids, first...)
	ids = append(ids, special.sep)
	if profile.DoubleSeparator {
		ids = append(ids, special.sep)
	}
	secondStart := len(ids)
	ids = append(ids, second...)
	ids = append(ids, special.sep)

	contextPos := secondStart
	if profile.ContextFirst {
		contextPos = 1
	}

	pad := 0
	if profile.PadToMax && profile.MaxSeqLen > len(ids) {
		pad = profile.MaxSeqLen - len(ids)
	}
	shift := 0
	if profile.PadLeft {
		shift = pad
	}

	n := len(ids) + pad
	in := domain.ModelInput{
		InputIDs:      make([]int64, n),
		AttentionMask: make([]int64, n),
	}
	if profile.UseTokenTypeIDs {
		in.TokenTypeIDs = make([]int64, n)
	}
	for i := range in.InputIDs {
		in.InputIDs[i] = int64(special.pad)
	}
	for i, id := range ids {
		in.InputIDs[shift+i] = int64(id)
		in.AttentionMask[shift+i] = 1
		if in.TokenTypeIDs != nil && i >= secondStart {
			in.TokenTypeIDs[shift+i] = 1
		}
	}

	return sequence{
		input:      in,
		clsPos:     shift,
		contextPos: contextPos + shift,
	}
}

// fastContextTokens tokenizes the whole context and keeps the tokenizer's
// own word ids and offsets.
func fastContextTokens(tok driven.Tokenizer, text string) ([]contextToken, error) {
	enc, err := tok.Tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(enc.Offsets) != enc.Len() {
		return nil, fmt.Errorf("%w: %d offsets for %d tokens", domain.ErrInvalidInput, len(enc.Offsets), enc.Len())
	}

	words := enc.Words
	if len(words) != enc.Len() || !hasWords(words) {
		words = wordsFromOffsets(enc.Offsets)
	}

	out := make([]contextToken, enc.Len())
	for i := range out {
		out[i] = contextToken{id: enc.IDs[i], word: words[i], offset: enc.Offsets[i]}
	}
	return out, nil
}

// slowContextTokens splits the context on whitespace, tokenizes every word
// on its own and records which word every character belongs to.
func slowContextTokens(tok driven.Tokenizer, text string) ([]contextToken, []int, error) {
	words, charToWord := splitWords(text)

	var out []contextToken
	for w, word := range words {
		enc, err := tok.Tokenize(word.text)
		if err != nil {
			return nil, nil, fmt.Errorf("word %d: %w", w, err)
		}
		for i, id := range enc.IDs {
			off := domain.Offset{Start: word.start, End: word.start + len([]rune(word.text))}
			if i < len(enc.Offsets) {
				off = domain.Offset{
					Start: word.start + enc.Offsets[i].Start,
					End:   word.start + enc.Offsets[i].End,
				}
			}
			out = append(out, contextToken{id: id, word: w, offset: off})
		}
	}
	return out, charToWord, nil
}

// textWord is a whitespace-delimited word and its first character.
type textWord struct {
	text  string
	start int
}

// splitWords splits text on whitespace. Whitespace characters map to noWord.
func splitWords(text string) ([]textWord, []int) {
	runes := []rune(text)
	charToWord := make([]int, len(runes))

	var words []textWord
	inWord := false
	for i, r := range runes {
		if unicode.IsSpace(r) {
			charToWord[i] = noWord
			if inWord {
				last := &words[len(words)-1]
				last.text = string(runes[last.start:i])
			}
			inWord = false
			continue
		}
		if !inWord {
			words = append(words, textWord{start: i})
			inWord = true
		}
		charToWord[i] = len(words) - 1
	}
	if inWord {
		last := &words[len(words)-1]
		last.text = string(runes[last.start:])
	}
	return words, charToWord
}

// wordsFromOffsets starts a new word wherever a gap separates two tokens.
func wordsFromOffsets(offsets []domain.Offset) []int {
	words := make([]int, len(offsets))
	w := -1
	prevEnd := -1
	for i, off := range offsets {
		if w < 0 || off.Start > prevEnd {
			w++
		}
		words[i] = w
		prevEnd = off.End
	}
	return words
}

func hasWords(words []int) bool {
	for _, w := range words {
		if w >= 0 {
			return true
		}
	}
	return false
}

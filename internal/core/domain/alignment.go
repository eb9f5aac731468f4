package domain

// AlignmentData carries the alignment information supplied by the tokenizer.
// Exactly one of Fast or Slow is set.
type AlignmentData struct {
	Fast *FastAlignment
	Slow *SlowAlignment
}

// FastAlignment is the offset-table alignment of a fast tokenizer.
// Both slices are indexed by scored token.
type FastAlignment struct {
	// Words holds the context word index of every scored token, or -1.
	Words []int

	// Offsets holds the character offsets of every scored token.
	Offsets []Offset
}

// SlowAlignment is the char-array alignment of a slow tokenizer.
type SlowAlignment struct {
	// TokenToWord maps every scored token to a context word index, or -1.
	TokenToWord []int

	// CharToWord maps every context character to a word index, or -1.
	CharToWord []int
}

// Encoding is the tokenizer output for one piece of text, without special tokens.
type Encoding struct {
	IDs []int

	// Offsets are character offsets into the encoded text.
	Offsets []Offset

	// Words holds the pre-tokenizer word index of every token, or -1.
	Words []int
}

// Len returns the number of tokens.
func (e Encoding) Len() int {
	return len(e.IDs)
}

// ModelInput is one encoded sequence ready for inference.
type ModelInput struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// Len returns the sequence length.
func (m ModelInput) Len() int {
	return len(m.InputIDs)
}

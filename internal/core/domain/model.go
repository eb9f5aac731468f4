package domain

// ModelProfile describes how a question-answering model expects its input.
type ModelProfile struct {
	// ClsToken opens the sequence; its position doubles as the no-answer sentinel.
	ClsToken string

	// SepToken separates and closes the two segments.
	SepToken string

	// PadToken fills the sequence up to MaxSeqLen when PadToMax is set.
	PadToken string

	// DoubleSeparator puts two separators between the segments (RoBERTa style).
	DoubleSeparator bool

	// ContextFirst places the context before the question.
	ContextFirst bool

	// PadLeft pads on the left instead of the right.
	PadLeft bool

	// PadToMax pads every sequence to MaxSeqLen.
	PadToMax bool

	// MaxSeqLen is the longest sequence the model accepts.
	MaxSeqLen int

	// UseTokenTypeIDs feeds segment ids to the model (BERT style).
	UseTokenTypeIDs bool
}

// BertProfile returns the input layout of BERT and ALBERT models.
func BertProfile() ModelProfile {
	return ModelProfile{
		ClsToken:        "[CLS]",
		SepToken:        "[SEP]",
		PadToken:        "[PAD]",
		MaxSeqLen:       384,
		UseTokenTypeIDs: true,
	}
}

// RobertaProfile returns the input layout of RoBERTa models.
func RobertaProfile() ModelProfile {
	return ModelProfile{
		ClsToken:        "<s>",
		SepToken:        "</s>",
		PadToken:        "<pad>",
		DoubleSeparator: true,
		MaxSeqLen:       384,
	}
}

// LayoutOverrides forces parts of a model's input layout.
// Nil fields keep what the model's tokenizer files declare.
type LayoutOverrides struct {
	ContextFirst *bool
	PadLeft      *bool
	PadToMax     *bool
}

// IsZero reports whether no field is overridden.
func (o LayoutOverrides) IsZero() bool {
	return o.ContextFirst == nil && o.PadLeft == nil && o.PadToMax == nil
}

// Apply returns p with the overridden fields replaced.
func (o LayoutOverrides) Apply(p ModelProfile) ModelProfile {
	if o.ContextFirst != nil {
		p.ContextFirst = *o.ContextFirst
	}
	if o.PadLeft != nil {
		p.PadLeft = *o.PadLeft
	}
	if o.PadToMax != nil {
		p.PadToMax = *o.PadToMax
	}
	return p
}

// ModelInfo describes a known model for listing.
type ModelInfo struct {
	// Lang is the language code the model is the default for, if any.
	Lang string

	// Name is the hub identifier or local path.
	Name string

	// Local reports whether the model files are already on disk.
	Local bool

	// Loaded reports whether the model is loaded in this process.
	Loaded bool
}

package domain

// NoSentinel marks a scored token axis without a no-answer position.
const NoSentinel = -1

// Example is one question asked against one context passage.
type Example struct {
	// ID identifies the record in the output. Defaults to the record index.
	ID string

	// Question is the natural-language question.
	Question string

	// Context is the passage the answer is extracted from.
	Context string
}

// Span is an inclusive character range in the context.
// Offsets count Unicode code points, not bytes.
type Span struct {
	Start int
	End   int
}

// Offset is a half-open character range [Start, End) reported by a tokenizer.
type Offset struct {
	Start int
	End   int
}

// ScoredTokens is the per-request input of the token scoring core.
type ScoredTokens struct {
	// Start holds one raw start logit per scored token.
	Start []float64

	// End holds one raw end logit per scored token.
	End []float64

	// Sentinel is the index of the no-answer position, or NoSentinel.
	Sentinel int

	// Alignment maps scored tokens back to context words.
	Alignment AlignmentData
}

// TokenScores is the word-level output of the token scoring core.
type TokenScores struct {
	// Scores holds the inclusion probability of every context word.
	Scores []float64

	// Spans holds the character span of every context word.
	Spans []Span

	// IsAnswered is the answered confidence. Nil when no sentinel was scored.
	IsAnswered *float64
}

// Answer is one candidate answer span.
type Answer struct {
	Score float64
	// Start is the first character of the answer.
	Start int
	// End is one past the last character of the answer.
	End  int
	Text string
}

// Result is the outcome of answering one Example.
type Result struct {
	ID          string
	IsAnswered  *float64
	Answers     []Answer
	TokenScores []float64
	TokenSpans  []Span
}

// Best returns the highest ranked answer, or the zero Answer.
func (r *Result) Best() Answer {
	if r == nil || len(r.Answers) == 0 {
		return Answer{}
	}
	return r.Answers[0]
}

// ItemResult pairs a batch position with its result or failure.
type ItemResult struct {
	Index  int
	Result *Result
	Err    error
}

// AnswerOptions configures how examples are answered.
type AnswerOptions struct {
	// TopK is the number of answer candidates to return.
	TopK int

	// MaxAnswerLen bounds the number of tokens in an answer span.
	MaxAnswerLen int

	// MustAnswer disables the no-answer sentinel (SQuAD v1 behaviour).
	MustAnswer bool

	// TokenScores enables per-word inclusion probabilities.
	TokenScores bool

	// SlowAlignment aligns tokens through a char-to-word array built from
	// whitespace-split words instead of the tokenizer's offset table.
	SlowAlignment bool

	// Workers bounds how many examples are processed concurrently.
	Workers int
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o AnswerOptions) WithDefaults() AnswerOptions {
	if o.TopK <= 0 {
		o.TopK = 1
	}
	if o.MaxAnswerLen <= 0 {
		o.MaxAnswerLen = 15
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

package domain

import "fmt"

const unknownDescription = "Unknown"

// AlignmentMode selects how scored tokens are mapped back to context words.
type AlignmentMode string

// Available alignment modes.
const (
	// AlignmentFast uses the tokenizer's per-token word ids and offsets.
	AlignmentFast AlignmentMode = "fast"

	// AlignmentSlow builds a char-to-word array from whitespace-split words.
	AlignmentSlow AlignmentMode = "slow"
)

// IsValid returns true if the alignment mode is recognised.
func (m AlignmentMode) IsValid() bool {
	switch m {
	case AlignmentFast, AlignmentSlow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m AlignmentMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m AlignmentMode) Description() string {
	switch m {
	case AlignmentFast:
		return "Fast (tokenizer offsets)"
	case AlignmentSlow:
		return "Slow (char-to-word array)"
	default:
		return unknownDescription
	}
}

// ModelSettings configures where models come from.
type ModelSettings struct {
	// Dir caches downloaded models. Empty means ~/.quanswer/models.
	Dir string

	// RuntimeLibrary is the path to the ONNX Runtime shared library.
	RuntimeLibrary string

	// Languages overrides the default model per language code.
	Languages map[string]string
}

// QASettings configures question answering defaults.
type QASettings struct {
	MaxSeqLen    int
	MaxAnswerLen int
	Workers      int
	Batch        int
	Alignment    AlignmentMode

	// Layout overrides the input layout detected from the model's tokenizer.
	Layout LayoutOverrides
}

// CacheSettings configures the result cache.
type CacheSettings struct {
	Enabled bool
	Dir     string
}

// AppSettings aggregates all application settings.
type AppSettings struct {
	Models ModelSettings
	QA     QASettings
	Cache  CacheSettings
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Models: ModelSettings{Languages: map[string]string{}},
		QA: QASettings{
			MaxSeqLen:    384,
			MaxAnswerLen: 15,
			Workers:      1,
			Batch:        32,
			Alignment:    AlignmentFast,
		},
		Cache: CacheSettings{Enabled: true},
	}
}

// Validate checks that numeric settings are usable.
func (s AppSettings) Validate() error {
	switch {
	case s.QA.MaxSeqLen < 8:
		return fmt.Errorf("%w: qa.max_seq_len must be at least 8, got %d", ErrInvalidInput, s.QA.MaxSeqLen)
	case s.QA.MaxAnswerLen < 1:
		return fmt.Errorf("%w: qa.max_answer_len must be positive, got %d", ErrInvalidInput, s.QA.MaxAnswerLen)
	case s.QA.Workers < 1:
		return fmt.Errorf("%w: qa.workers must be positive, got %d", ErrInvalidInput, s.QA.Workers)
	case s.QA.Batch < 1:
		return fmt.Errorf("%w: qa.batch must be positive, got %d", ErrInvalidInput, s.QA.Batch)
	case !s.QA.Alignment.IsValid():
		return fmt.Errorf("%w: unknown alignment mode %q", ErrInvalidInput, s.QA.Alignment)
	}
	return nil
}

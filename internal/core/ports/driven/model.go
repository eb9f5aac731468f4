package driven

import (
	"context"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// QAModel is a loaded extractive question-answering model.
// Logits must be safe for concurrent use.
type QAModel interface {
	// Name returns the identifier the model was loaded from.
	Name() string

	// Tokenizer returns the tokenizer paired with the model.
	Tokenizer() Tokenizer

	// Profile returns the input layout the model expects.
	Profile() domain.ModelProfile

	// Logits scores every position of the input sequence.
	// Both returned slices have in.Len() entries.
	Logits(ctx context.Context, in domain.ModelInput) (start, end []float32, err error)

	// Close releases the model's resources.
	Close() error
}

// ModelLoader loads models by hub identifier or local path.
type ModelLoader interface {
	// Load prepares (downloading if needed) and opens a model.
	Load(ctx context.Context, name string) (QAModel, error)

	// IsLocal reports whether the model files are already on disk.
	IsLocal(name string) bool

	// Close releases runtime resources shared by all loaded models.
	Close() error
}

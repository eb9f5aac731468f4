package driving

import (
	"context"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// AnswerService answers questions against context passages.
type AnswerService interface {
	// Answer processes a batch of examples with the named model or language code.
	// Per-example failures are reported in the items; the error is reserved for
	// failures that affect the whole batch, such as a model that cannot load.
	Answer(ctx context.Context, model string, examples []domain.Example, opts domain.AnswerOptions) ([]domain.ItemResult, error)
}

// ModelService lists the models quanswer knows about.
type ModelService interface {
	// List returns the language defaults and any other loaded models.
	List(ctx context.Context) ([]domain.ModelInfo, error)

	// Resolve maps a language code to its default model name.
	// Anything else is returned unchanged.
	Resolve(langOrName string) string
}

// HistoryService exposes past runs.
type HistoryService interface {
	// Recent returns the most recent runs first.
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
}

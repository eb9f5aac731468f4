package driven

import (
	"context"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// RunStore keeps a history of answered batches.
// This is an optional service.
type RunStore interface {
	// SaveRun records a finished batch.
	SaveRun(ctx context.Context, run domain.Run) error

	// ListRuns returns the most recent runs first, at most limit.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// ResultCache stores answered results keyed by a digest of model, options and input.
// This is an optional service - when nil, every example is scored.
type ResultCache interface {
	// Get returns a cached result. The boolean is false on a miss.
	Get(ctx context.Context, key string) (*domain.Result, bool, error)

	// Put stores a result.
	Put(ctx context.Context, key string, result *domain.Result) error

	// Close releases resources.
	Close() error
}

// CacheMaintainer inspects and prunes a result cache.
type CacheMaintainer interface {
	// Stats summarizes the cached results.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Prune removes results stored before cutoff and reports how many.
	// A zero cutoff removes every result.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// CacheService manages the result cache.
type CacheService interface {
	// Stats summarizes the cache.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Clear removes every cached result.
	Clear(ctx context.Context) (int, error)

	// Prune removes results older than maxAge.
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

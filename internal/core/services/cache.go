package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// Ensure CacheService implements the interface.
var _ driving.CacheService = (*CacheService)(nil)

// CacheService inspects and prunes the result cache.
type CacheService struct {
	cache driven.CacheMaintainer
	now   func() time.Time
}

// NewCacheService creates a cache service. cache may be nil when no
// cache is configured; every call then fails with domain.ErrCacheUnavailable.
func NewCacheService(cache driven.CacheMaintainer) *CacheService {
	return &CacheService{cache: cache, now: time.Now}
}

// Stats summarizes the cache.
func (s *CacheService) Stats(ctx context.Context) (domain.CacheStats, error) {
	if s.cache == nil {
		return domain.CacheStats{}, domain.ErrCacheUnavailable
	}
	return s.cache.Stats(ctx)
}

// Clear removes every cached result.
func (s *CacheService) Clear(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, domain.ErrCacheUnavailable
	}
	n, err := s.cache.Prune(ctx, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	logger.Debug("Cleared %d cached results", n)
	return n, nil
}

// Prune removes results older than maxAge.
func (s *CacheService) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	if s.cache == nil {
		return 0, domain.ErrCacheUnavailable
	}
	if maxAge <= 0 {
		return 0, fmt.Errorf("%w: max age must be positive, got %s", domain.ErrInvalidInput, maxAge)
	}
	cutoff := s.now().Add(-maxAge)
	n, err := s.cache.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	logger.Debug("Pruned %d cached results stored before %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}

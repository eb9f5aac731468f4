package memory

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// Ensure ResultCache implements the interfaces.
var (
	_ driven.ResultCache     = (*ResultCache)(nil)
	_ driven.CacheMaintainer = (*ResultCache)(nil)
)

// DefaultCacheEntries bounds an in-memory cache created with a zero capacity.
const DefaultCacheEntries = 1024

// ResultCache is an in-memory LRU implementation of driven.ResultCache.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
	hits     int
	now      func() time.Time
}

type cacheEntry struct {
	key    string
	result domain.Result
	stored time.Time
}

// NewResultCache creates a cache holding at most capacity results.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheEntries
	}
	return &ResultCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns a copy of the cached result for key.
func (c *ResultCache) Get(_ context.Context, key string) (*domain.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(elem)
	c.hits++
	r := cloneResult(elem.Value.(*cacheEntry).result)
	return &r, true, nil
}

// Put stores a copy of result under key, evicting the least recently used entry when full.
func (c *ResultCache) Put(_ context.Context, key string, result *domain.Result) error {
	if result == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.result = cloneResult(*result)
		entry.stored = now
		c.order.MoveToFront(elem)
		return nil
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: cloneResult(*result), stored: now})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return nil
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats summarizes the cached results.
func (c *ResultCache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.CacheStats{Location: "memory", Entries: c.order.Len(), Hits: c.hits}
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		stored := elem.Value.(*cacheEntry).stored
		if stats.Oldest.IsZero() || stored.Before(stats.Oldest) {
			stats.Oldest = stored
		}
		if stored.After(stats.Newest) {
			stats.Newest = stored
		}
	}
	return stats, nil
}

// Prune removes entries stored before cutoff, or every entry for a zero cutoff.
func (c *ResultCache) Prune(_ context.Context, cutoff time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*cacheEntry)
		if cutoff.IsZero() || entry.stored.Before(cutoff) {
			c.order.Remove(elem)
			delete(c.entries, entry.key)
			removed++
		}
		elem = next
	}
	return removed, nil
}

// Close drops all entries.
func (c *ResultCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	return nil
}

func cloneResult(r domain.Result) domain.Result {
	out := r
	if r.IsAnswered != nil {
		v := *r.IsAnswered
		out.IsAnswered = &v
	}
	out.Answers = slices.Clone(r.Answers)
	out.TokenScores = slices.Clone(r.TokenScores)
	out.TokenSpans = slices.Clone(r.TokenSpans)
	return out
}

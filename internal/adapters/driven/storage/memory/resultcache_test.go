package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

func sampleResult() *domain.Result {
	answered := 0.9
	return &domain.Result{
		ID:          "q1",
		IsAnswered:  &answered,
		Answers:     []domain.Answer{{Score: 0.8, Start: 4, End: 9, Text: "Paris"}},
		TokenScores: []float64{0.1, 0.9},
		TokenSpans:  []domain.Span{{Start: 0, End: 2}, {Start: 4, End: 8}},
	}
}

func TestResultCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(4)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k", sampleResult()))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
}

func TestResultCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(4)
	original := sampleResult()
	require.NoError(t, cache.Put(ctx, "k", original))

	original.TokenScores[0] = 42
	*original.IsAnswered = 0

	got, _, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	got.Answers[0].Text = "changed"

	again, _, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, again.TokenScores[0], 1e-12)
	assert.InDelta(t, 0.9, *again.IsAnswered, 1e-12)
	assert.Equal(t, "Paris", again.Answers[0].Text)
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(2)

	require.NoError(t, cache.Put(ctx, "a", sampleResult()))
	require.NoError(t, cache.Put(ctx, "b", sampleResult()))
	_, _, _ = cache.Get(ctx, "a")
	require.NoError(t, cache.Put(ctx, "c", sampleResult()))

	_, okA, _ := cache.Get(ctx, "a")
	_, okB, _ := cache.Get(ctx, "b")
	_, okC, _ := cache.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, cache.Len())
}

func TestResultCache_DefaultCapacityAndClose(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(0)
	for i := 0; i < DefaultCacheEntries+10; i++ {
		require.NoError(t, cache.Put(ctx, fmt.Sprintf("k%d", i), sampleResult()))
	}
	assert.Equal(t, DefaultCacheEntries, cache.Len())

	require.NoError(t, cache.Put(ctx, "nil", nil))
	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_Stats(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(4)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := base
	cache.now = func() time.Time { return clock }

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Location)
	assert.Zero(t, stats.Entries)
	assert.True(t, stats.Oldest.IsZero())

	require.NoError(t, cache.Put(ctx, "a", sampleResult()))
	clock = base.Add(time.Hour)
	require.NoError(t, cache.Put(ctx, "b", sampleResult()))
	_, _, err = cache.Get(ctx, "a")
	require.NoError(t, err)
	_, _, err = cache.Get(ctx, "missing")
	require.NoError(t, err)

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, base, stats.Oldest)
	assert.Equal(t, base.Add(time.Hour), stats.Newest)
}

func TestResultCache_Prune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("removes entries stored before the cutoff", func(t *testing.T) {
		cache := NewResultCache(4)
		clock := base
		cache.now = func() time.Time { return clock }
		require.NoError(t, cache.Put(ctx, "old", sampleResult()))
		clock = base.Add(48 * time.Hour)
		require.NoError(t, cache.Put(ctx, "new", sampleResult()))

		n, err := cache.Prune(ctx, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, ok, _ := cache.Get(ctx, "old")
		assert.False(t, ok)
		_, ok, _ = cache.Get(ctx, "new")
		assert.True(t, ok)
	})

	t.Run("zero cutoff removes everything", func(t *testing.T) {
		cache := NewResultCache(4)
		for i := range 3 {
			require.NoError(t, cache.Put(ctx, fmt.Sprintf("k%d", i), sampleResult()))
		}

		n, err := cache.Prune(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Zero(t, cache.Len())
	})
}

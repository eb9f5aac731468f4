package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "results.db"), store.Path())

	version, err := store.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.ResultCache().Put(context.Background(), "k", &domain.Result{}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	_, ok, err := second.ResultCache().Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewStore_MkdirError(t *testing.T) {
	store, err := NewStore("/dev/null/cannot/create")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func sampleResult() *domain.Result {
	answered := 0.75
	return &domain.Result{
		ID:          "ignored",
		IsAnswered:  &answered,
		Answers:     []domain.Answer{{Score: 0.5, Start: 25, End: 30, Text: "Paris"}, {}},
		TokenScores: []float64{0.01, 0.99},
		TokenSpans:  []domain.Span{{Start: 0, End: 2}, {Start: 25, End: 29}},
	}
}

func TestResultCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k", sampleResult()))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	want := sampleResult()
	want.ID = ""
	assert.Equal(t, want, got)
}

func TestResultCache_WithoutOptionalFields(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	require.NoError(t, cache.Put(ctx, "k", &domain.Result{
		Answers: []domain.Answer{{Score: 1, Start: 0, End: 3, Text: "abc"}},
	}))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.IsAnswered)
	assert.Nil(t, got.TokenScores)
	assert.Nil(t, got.TokenSpans)
	assert.Equal(t, "abc", got.Best().Text)
}

func TestResultCache_Replace(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	require.NoError(t, cache.Put(ctx, "k", sampleResult()))
	require.NoError(t, cache.Put(ctx, "k", &domain.Result{Answers: []domain.Answer{{Text: "Lyon"}}}))

	got, _, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", got.Best().Text)
}

func TestResultCache_CountsHits(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	cache := newResultCache(store)

	require.NoError(t, cache.Put(ctx, "k", sampleResult()))
	for i := 0; i < 3; i++ {
		_, _, err := cache.Get(ctx, "k")
		require.NoError(t, err)
	}

	n, err := cache.hits(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = cache.hits(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultCache_NilIsIgnored(t *testing.T) {
	cache := setupTestStore(t).ResultCache()

	require.NoError(t, cache.Put(context.Background(), "k", nil))
	_, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, cache.Close())
}

func TestResultCache_Stats(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	cache := newResultCache(store)
	base := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	clock := base
	cache.now = func() time.Time { return clock }

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Path(), stats.Location)
	assert.Zero(t, stats.Entries)
	assert.True(t, stats.Oldest.IsZero())
	assert.True(t, stats.Newest.IsZero())

	require.NoError(t, cache.Put(ctx, "a", sampleResult()))
	clock = base.Add(2 * time.Hour)
	require.NoError(t, cache.Put(ctx, "b", sampleResult()))
	_, _, err = cache.Get(ctx, "a")
	require.NoError(t, err)
	_, _, err = cache.Get(ctx, "b")
	require.NoError(t, err)

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 2, stats.Hits)
	assert.Equal(t, base, stats.Oldest)
	assert.Equal(t, base.Add(2*time.Hour), stats.Newest)
}

func TestResultCache_Prune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	t.Run("deletes results older than the cutoff", func(t *testing.T) {
		cache := newResultCache(setupTestStore(t))
		clock := base
		cache.now = func() time.Time { return clock }
		require.NoError(t, cache.Put(ctx, "old", sampleResult()))
		clock = base.Add(72 * time.Hour)
		require.NoError(t, cache.Put(ctx, "new", sampleResult()))

		n, err := cache.Prune(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, ok, err := cache.Get(ctx, "old")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = cache.Get(ctx, "new")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("zero cutoff clears the table", func(t *testing.T) {
		store := setupTestStore(t)
		cache := store.CacheMaintainer()
		results := store.ResultCache()
		require.NoError(t, results.Put(ctx, "a", sampleResult()))
		require.NoError(t, results.Put(ctx, "b", sampleResult()))

		n, err := cache.Prune(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		stats, err := cache.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Entries)
	})
}

func TestRunStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, runs.SaveRun(ctx, domain.Run{
			ID:        id,
			Model:     "org/model",
			Examples:  10 + i,
			Failures:  i,
			CacheHits: 2,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Millisecond,
		}))
	}

	got, err := runs.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "third", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, 12, got[0].Examples)
	assert.Equal(t, 2, got[0].Failures)
	assert.Equal(t, 2, got[0].CacheHits)
	assert.Equal(t, 1500*time.Millisecond, got[0].Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(got[0].StartedAt))
}

func TestRunStore_Errors(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()

	assert.ErrorIs(t, runs.SaveRun(ctx, domain.Run{}), domain.ErrInvalidInput)

	require.NoError(t, runs.SaveRun(ctx, domain.Run{ID: "dup", StartedAt: time.Now()}))
	assert.Error(t, runs.SaveRun(ctx, domain.Run{ID: "dup", StartedAt: time.Now()}))

	empty, err := setupTestStore(t).RunStore().ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

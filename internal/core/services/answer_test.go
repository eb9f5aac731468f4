package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

const testContext = "The capital of France is Paris and it is large"

func newTestService(model *mockModel, cache *mockCache) *AnswerService {
	loader := &mockLoader{models: map[string]*mockModel{model.name: model}}
	registry := NewModelRegistry(loader, nil)
	if cache == nil {
		return NewAnswerService(registry, nil, nil)
	}
	return NewAnswerService(registry, cache, nil)
}

func TestAnswerService_AnswersSpan(t *testing.T) {
	model := newMockModel("qa", "Paris")
	svc := newTestService(model, nil)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{ID: "q1", Question: "What is the capital?", Context: testContext},
	}, domain.AnswerOptions{TokenScores: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, items[0].Err)

	res := items[0].Result
	require.NotNil(t, res)
	assert.Equal(t, "q1", res.ID)

	best := res.Best()
	assert.Equal(t, "Paris", best.Text)
	assert.Equal(t, 25, best.Start)
	assert.Equal(t, 30, best.End)

	require.NotNil(t, res.IsAnswered)
	assert.InDelta(t, 1.0, *res.IsAnswered, 1e-6)

	require.Len(t, res.TokenScores, 10)
	require.Len(t, res.TokenSpans, 10)
	assert.InDelta(t, 1.0, res.TokenScores[5], 1e-6)
	assert.Equal(t, domain.Span{Start: 25, End: 29}, res.TokenSpans[5])
	assert.InDelta(t, 0.0, res.TokenScores[0], 1e-6)
}

func TestAnswerService_Unanswerable(t *testing.T) {
	model := newMockModel("qa", "")
	svc := newTestService(model, nil)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{ID: "q1", Question: "Who won?", Context: testContext},
	}, domain.AnswerOptions{})
	require.NoError(t, err)
	require.NoError(t, items[0].Err)

	res := items[0].Result
	require.NotNil(t, res.IsAnswered)
	assert.InDelta(t, 0.0, *res.IsAnswered, 1e-6)
	assert.Empty(t, res.TokenScores, "token scores are opt-in")
	assert.Equal(t, "", res.Best().Text)
}

func TestAnswerService_MustAnswer(t *testing.T) {
	model := newMockModel("qa", "Paris")
	svc := newTestService(model, nil)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{ID: "q1", Question: "What is the capital?", Context: testContext},
	}, domain.AnswerOptions{MustAnswer: true, TopK: 3})
	require.NoError(t, err)

	res := items[0].Result
	require.NotNil(t, res)
	assert.Nil(t, res.IsAnswered)
	require.Len(t, res.Answers, 3)
	assert.Equal(t, "Paris", res.Answers[0].Text)
	assert.GreaterOrEqual(t, res.Answers[0].Score, res.Answers[1].Score)
	assert.GreaterOrEqual(t, res.Answers[1].Score, res.Answers[2].Score)
}

func TestAnswerService_PreservesOrderWithWorkers(t *testing.T) {
	model := newMockModel("qa", "Paris")
	svc := newTestService(model, nil)

	examples := make([]domain.Example, 20)
	for i := range examples {
		examples[i] = domain.Example{ID: fmt.Sprintf("q%d", i), Question: "Where?", Context: testContext}
	}

	items, err := svc.Answer(context.Background(), "qa", examples, domain.AnswerOptions{Workers: 4})
	require.NoError(t, err)
	require.Len(t, items, len(examples))
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		require.NoError(t, item.Err)
		assert.Equal(t, examples[i].ID, item.Result.ID)
	}
	assert.Equal(t, len(examples), model.callCount())
}

func TestAnswerService_PerItemErrors(t *testing.T) {
	model := newMockModel("qa", "Paris")
	svc := newTestService(model, nil)

	longQuestion := strings.Repeat("word ", domain.BertProfile().MaxSeqLen)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{ID: "ok", Question: "Where?", Context: testContext},
		{ID: "bad", Question: longQuestion, Context: testContext},
	}, domain.AnswerOptions{Workers: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.NoError(t, items[0].Err)
	assert.ErrorIs(t, items[1].Err, domain.ErrInvalidInput)
	assert.Nil(t, items[1].Result)
}

func TestAnswerService_InferenceError(t *testing.T) {
	model := newMockModel("qa", "Paris")
	model.err = errInference
	svc := newTestService(model, nil)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{ID: "q1", Question: "Where?", Context: testContext},
	}, domain.AnswerOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, items[0].Err, errInference)
}

func TestAnswerService_ModelUnavailable(t *testing.T) {
	svc := newTestService(newMockModel("qa", ""), nil)

	_, err := svc.Answer(context.Background(), "missing", []domain.Example{
		{Question: "Where?", Context: testContext},
	}, domain.AnswerOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestAnswerService_EmptyBatch(t *testing.T) {
	svc := newTestService(newMockModel("qa", ""), nil)

	items, err := svc.Answer(context.Background(), "missing", nil, domain.AnswerOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAnswerService_Cache(t *testing.T) {
	model := newMockModel("qa", "Paris")
	cache := newMockCache()
	svc := newTestService(model, cache)

	ex := domain.Example{ID: "first", Question: "Where?", Context: testContext}
	items, err := svc.Answer(context.Background(), "qa", []domain.Example{ex}, domain.AnswerOptions{})
	require.NoError(t, err)
	require.NoError(t, items[0].Err)
	assert.Equal(t, 1, cache.puts)

	ex.ID = "second"
	items, err = svc.Answer(context.Background(), "qa", []domain.Example{ex}, domain.AnswerOptions{})
	require.NoError(t, err)
	require.NoError(t, items[0].Err)

	assert.Equal(t, 1, model.callCount(), "second call served from cache")
	assert.Equal(t, "second", items[0].Result.ID)
	assert.Equal(t, "Paris", items[0].Result.Best().Text)
}

func TestAnswerService_CacheErrorFallsThrough(t *testing.T) {
	model := newMockModel("qa", "Paris")
	cache := newMockCache()
	cache.getErr = fmt.Errorf("disk full")
	svc := newTestService(model, cache)

	items, err := svc.Answer(context.Background(), "qa", []domain.Example{
		{Question: "Where?", Context: testContext},
	}, domain.AnswerOptions{})
	require.NoError(t, err)
	require.NoError(t, items[0].Err)
	assert.Equal(t, 1, model.callCount())
}

func TestAnswerService_CancelledContext(t *testing.T) {
	svc := newTestService(newMockModel("qa", "Paris"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := svc.Answer(ctx, "qa", []domain.Example{
		{Question: "Where?", Context: testContext},
	}, domain.AnswerOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, items[0].Err, context.Canceled)
}

func TestCacheKey(t *testing.T) {
	ex := domain.Example{ID: "a", Question: "q", Context: "c"}
	opts := domain.AnswerOptions{}.WithDefaults()
	key := CacheKey("m", ex, opts)

	t.Run("ignores id", func(t *testing.T) {
		other := ex
		other.ID = "b"
		assert.Equal(t, key, CacheKey("m", other, opts))
	})

	t.Run("depends on inputs", func(t *testing.T) {
		assert.NotEqual(t, key, CacheKey("n", ex, opts))

		other := opts
		other.TopK = 2
		assert.NotEqual(t, key, CacheKey("m", ex, other))

		other = opts
		other.MustAnswer = true
		assert.NotEqual(t, key, CacheKey("m", ex, other))

		moved := domain.Example{Question: "qc", Context: ""}
		assert.NotEqual(t, CacheKey("m", domain.Example{Question: "q", Context: "c"}, opts), CacheKey("m", moved, opts))
	})

	t.Run("hex sha256", func(t *testing.T) {
		assert.Len(t, key, 64)
	})
}

func TestAnswerService_RecordsRuns(t *testing.T) {
	model := newMockModel("qa", "Paris")
	loader := &mockLoader{models: map[string]*mockModel{"qa": model}}
	cache := newMockCache()
	runs := &mockRunStore{}
	svc := NewAnswerService(NewModelRegistry(loader, nil), cache, runs)

	longQuestion := strings.Repeat("word ", domain.BertProfile().MaxSeqLen)
	examples := []domain.Example{
		{ID: "a", Question: "Where?", Context: testContext},
		{ID: "b", Question: "Where?", Context: testContext},
		{ID: "c", Question: longQuestion, Context: testContext},
	}

	_, err := svc.Answer(context.Background(), "qa", examples, domain.AnswerOptions{})
	require.NoError(t, err)

	recent, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	run := recent[0]
	assert.Len(t, run.ID, 36)
	assert.Equal(t, "qa", run.Model)
	assert.Equal(t, 3, run.Examples)
	assert.Equal(t, 1, run.Failures)
	assert.Equal(t, 1, run.CacheHits)
	assert.False(t, run.StartedAt.IsZero())
}

func TestAnswerService_RecentWithoutStore(t *testing.T) {
	svc := newTestService(newMockModel("qa", ""), nil)

	recent, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

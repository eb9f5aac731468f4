package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
)

var (
	_ driving.AnswerService   = (*mockAnswerService)(nil)
	_ driving.ModelService    = (*mockModelService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
	_ driving.HistoryService  = (*mockHistoryService)(nil)
)

var errMockFailure = errors.New("mock failure")

// mockAnswerService answers every record with the first word of its context.
// Records whose question is "fail" fail.
type mockAnswerService struct {
	mu      sync.Mutex
	models  []string
	batches []int
	opts    []domain.AnswerOptions
	err     error
}

func (m *mockAnswerService) Answer(
	_ context.Context, model string, examples []domain.Example, opts domain.AnswerOptions,
) ([]domain.ItemResult, error) {
	m.mu.Lock()
	m.models = append(m.models, model)
	m.batches = append(m.batches, len(examples))
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	items := make([]domain.ItemResult, len(examples))
	for i, ex := range examples {
		items[i].Index = i
		if ex.Question == "fail" {
			items[i].Err = errMockFailure
			continue
		}
		answered := 0.875
		res := &domain.Result{
			ID:         ex.ID,
			IsAnswered: &answered,
			Answers: []domain.Answer{
				{Score: 0.75, Start: 0, End: 5, Text: "Paris"},
				{Score: 0.125, Start: 6, End: 8, Text: "is"},
			},
			TokenScores: []float64{0.9, 0.1},
			TokenSpans:  []domain.Span{{Start: 0, End: 4}, {Start: 6, End: 7}},
		}
		res.Answers = res.Answers[:min(opts.TopK, len(res.Answers))]
		items[i].Result = res
	}
	return items, nil
}

type mockModelService struct {
	models []domain.ModelInfo
	err    error
}

func (m *mockModelService) List(_ context.Context) ([]domain.ModelInfo, error) {
	return m.models, m.err
}

func (m *mockModelService) Resolve(langOrName string) string {
	return langOrName
}

type mockSettingsService struct {
	settings domain.AppSettings
	set      map[string]string
	err      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "bogus" {
		return domain.ErrNotFound
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"qa.workers", "models.en"}
}

func (m *mockSettingsService) Path() string {
	return "/tmp/quanswer/config.toml"
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

type mockHistoryService struct {
	runs  []domain.Run
	limit int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.Run, error) {
	m.limit = limit
	return m.runs, nil
}

type mockCacheService struct {
	stats  domain.CacheStats
	maxAge time.Duration
	n      int
	err    error
}

func (m *mockCacheService) Stats(context.Context) (domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockCacheService) Clear(context.Context) (int, error) {
	return m.n, m.err
}

func (m *mockCacheService) Prune(_ context.Context, maxAge time.Duration) (int, error) {
	m.maxAge = maxAge
	return m.n, m.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	answer   *mockAnswerService
	models   *mockModelService
	settings *mockSettingsService
	history  *mockHistoryService
	cache    *mockCacheService
}

// setupTestServices installs mock services and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	prevAnswer, prevModel := answerService, modelService
	prevSettings, prevHistory := settingsService, historyService
	prevCache := cacheService
	prevFactory := factory

	svc := &testServices{
		answer: &mockAnswerService{},
		models: &mockModelService{models: []domain.ModelInfo{
			{Lang: "en", Name: "ahotrod/albert_xxlargev1_squad2_512", Local: true},
			{Lang: "nl", Name: "raalst/RobBERT-v2-nl-ext-qa"},
		}},
		settings: newMockSettingsService(),
		history: &mockHistoryService{runs: []domain.Run{{
			ID:        "run-1",
			Model:     "ahotrod/albert_xxlargev1_squad2_512",
			Examples:  3,
			Failures:  1,
			CacheHits: 1,
			StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Duration:  1500 * time.Millisecond,
		}}},
		cache: &mockCacheService{stats: domain.CacheStats{
			Location: "/tmp/quanswer/results.db",
			Entries:  12,
			Hits:     30,
			Oldest:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Newest:   time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC),
		}},
	}
	answerService = svc.answer
	modelService = svc.models
	settingsService = svc.settings
	historyService = svc.history
	cacheService = svc.cache
	factory = nil

	return svc, func() {
		answerService, modelService = prevAnswer, prevModel
		settingsService, historyService = prevSettings, prevHistory
		cacheService = prevCache
		factory = prevFactory
	}
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

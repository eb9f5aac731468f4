package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/features"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
	"github.com/custodia-labs/quanswer/internal/core/scoring"
	"github.com/custodia-labs/quanswer/internal/core/spans"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService  = (*AnswerService)(nil)
	_ driving.HistoryService = (*AnswerService)(nil)
)

// AnswerService answers batches of examples with extractive QA models.
type AnswerService struct {
	models *ModelRegistry
	cache  driven.ResultCache
	runs   driven.RunStore
}

// NewAnswerService creates a new answer service.
// The cache and runs parameters are optional (can be nil).
func NewAnswerService(models *ModelRegistry, cache driven.ResultCache, runs driven.RunStore) *AnswerService {
	return &AnswerService{
		models: models,
		cache:  cache,
		runs:   runs,
	}
}

// Recent returns the most recent recorded runs.
func (s *AnswerService) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.runs == nil {
		return []domain.Run{}, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

// Answer processes examples concurrently, bounded by opts.Workers.
// Results keep the order of examples. A failing example never stops the others.
func (s *AnswerService) Answer(
	ctx context.Context, model string, examples []domain.Example, opts domain.AnswerOptions,
) ([]domain.ItemResult, error) {
	opts = opts.WithDefaults()
	runID := uuid.NewString()

	logger.Section("Answer Batch")
	logger.Debug("Run %s: %d examples, model=%s, workers=%d", runID, len(examples), model, opts.Workers)

	if len(examples) == 0 {
		return []domain.ItemResult{}, nil
	}

	qa, err := s.models.Get(ctx, model)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ItemResult, len(examples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var hits, failures atomic.Int64
	started := time.Now()
	for i := range examples {
		g.Go(func() error {
			items[i].Index = i
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				failures.Add(1)
				return nil
			}
			result, cached, err := s.answerOne(gctx, qa, examples[i], opts)
			if err != nil {
				logger.Warn("Example %s failed: %v", examples[i].ID, err)
				items[i].Err = err
				failures.Add(1)
				return nil
			}
			if cached {
				hits.Add(1)
			}
			items[i].Result = result
			return nil
		})
	}
	_ = g.Wait()

	run := domain.Run{
		ID:        runID,
		Model:     qa.Name(),
		Examples:  len(examples),
		Failures:  int(failures.Load()),
		CacheHits: int(hits.Load()),
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
	}
	logger.Debug("Run %s finished in %s: %d failed, %d cached", runID, run.Duration, run.Failures, run.CacheHits)
	if s.runs != nil {
		// History is best effort.
		if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("Failed to record run %s: %v", runID, err)
		}
	}
	return items, nil
}

// answerOne runs the full pipeline for one example.
// The boolean reports a cache hit.
func (s *AnswerService) answerOne(
	ctx context.Context, qa driven.QAModel, ex domain.Example, opts domain.AnswerOptions,
) (*domain.Result, bool, error) {
	key := CacheKey(qa.Name(), ex, opts)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Cache lookup failed: %v", err)
		} else if ok {
			logger.Debug("Cache hit for example %s", ex.ID)
			cached.ID = ex.ID
			return cached, true, nil
		}
	}

	f, err := features.Build(qa.Tokenizer(), ex, features.Options{
		Profile:  qa.Profile(),
		Sentinel: !opts.MustAnswer,
		Slow:     opts.SlowAlignment,
	})
	if err != nil {
		return nil, false, fmt.Errorf("build features: %w", err)
	}

	start, end, err := qa.Logits(ctx, f.Input)
	if err != nil {
		return nil, false, fmt.Errorf("score example: %w", err)
	}

	st, err := f.Scored(start, end)
	if err != nil {
		return nil, false, err
	}

	result := &domain.Result{ID: ex.ID}

	if opts.TokenScores || st.Sentinel != domain.NoSentinel {
		ts, err := scoring.Aggregate(st)
		if err != nil {
			return nil, false, fmt.Errorf("aggregate token scores: %w", err)
		}
		result.IsAnswered = ts.IsAnswered
		if opts.TokenScores {
			result.TokenScores = ts.Scores
			result.TokenSpans = ts.Spans
		}
	}

	result.Answers, err = spans.TopK(st, f.Offsets, ex.Context, spans.Options{
		TopK:             opts.TopK,
		MaxAnswerLen:     opts.MaxAnswerLen,
		HandleImpossible: !opts.MustAnswer,
	})
	if err != nil {
		return nil, false, fmt.Errorf("extract answers: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, result); err != nil {
			logger.Warn("Cache store failed: %v", err)
		}
	}
	return result, false, nil
}

// CacheKey digests everything that determines a result.
func CacheKey(model string, ex domain.Example, opts domain.AnswerOptions) string {
	h := sha256.New()
	for _, part := range []string{
		model,
		strconv.Itoa(opts.TopK),
		strconv.Itoa(opts.MaxAnswerLen),
		strconv.FormatBool(opts.MustAnswer),
		strconv.FormatBool(opts.TokenScores),
		strconv.FormatBool(opts.SlowAlignment),
		ex.Question,
		ex.Context,
	} {
		_, _ = io.WriteString(h, part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

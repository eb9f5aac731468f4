package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/core/ports/driven"
)

// resultCache implements driven.ResultCache and driven.CacheMaintainer.
// created_at holds Unix milliseconds so range queries stay numeric.
type resultCache struct {
	store *Store
	now   func() time.Time
}

var (
	_ driven.ResultCache     = (*resultCache)(nil)
	_ driven.CacheMaintainer = (*resultCache)(nil)
)

func newResultCache(s *Store) *resultCache {
	return &resultCache{store: s, now: time.Now}
}

// resultPayload is the JSON form of a cached domain.Result.
// The record ID is not stored; it belongs to the request, not the answer.
type resultPayload struct {
	IsAnswered  *float64        `json:"is_answered,omitempty"`
	Answers     []answerPayload `json:"answers"`
	TokenScores []float64       `json:"token_scores,omitempty"`
	TokenSpans  [][2]int        `json:"token_spans,omitempty"`
}

type answerPayload struct {
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Text  string  `json:"text"`
}

// Get returns the cached result for key and bumps its hit counter.
func (c *resultCache) Get(ctx context.Context, key string) (*domain.Result, bool, error) {
	var payload string
	err := c.store.db.QueryRowContext(ctx, "SELECT payload FROM results WHERE key = ?", key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying result: %w", err)
	}

	var p resultPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, false, fmt.Errorf("unmarshaling result: %w", err)
	}

	if _, err := c.store.db.ExecContext(ctx, "UPDATE results SET hits = hits + 1 WHERE key = ?", key); err != nil {
		return nil, false, fmt.Errorf("updating hits: %w", err)
	}

	return p.toDomain(), true, nil
}

// Put stores or replaces the result for key.
func (c *resultCache) Put(ctx context.Context, key string, result *domain.Result) error {
	if result == nil {
		return nil
	}
	payload, err := json.Marshal(newResultPayload(result))
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO results (key, payload, created_at, hits)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, key, string(payload), c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the connection.
func (c *resultCache) Close() error {
	return nil
}

// Stats summarizes the results table.
func (c *resultCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	var (
		entries, hits  int
		oldest, newest sql.NullInt64
	)
	err := c.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(hits), 0), MIN(created_at), MAX(created_at)
		FROM results
	`).Scan(&entries, &hits, &oldest, &newest)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("querying cache stats: %w", err)
	}

	stats := domain.CacheStats{Location: c.store.Path(), Entries: entries, Hits: hits}
	if oldest.Valid {
		stats.Oldest = time.UnixMilli(oldest.Int64).UTC()
	}
	if newest.Valid {
		stats.Newest = time.UnixMilli(newest.Int64).UTC()
	}
	return stats, nil
}

// Prune deletes results stored before cutoff, or every result for a zero cutoff.
func (c *resultCache) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	var (
		res sql.Result
		err error
	)
	if cutoff.IsZero() {
		res, err = c.store.db.ExecContext(ctx, "DELETE FROM results")
	} else {
		res, err = c.store.db.ExecContext(ctx, "DELETE FROM results WHERE created_at < ?", cutoff.UnixMilli())
	}
	if err != nil {
		return 0, fmt.Errorf("pruning results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned results: %w", err)
	}
	return int(n), nil
}

// hits returns the hit counter for key.
func (c *resultCache) hits(ctx context.Context, key string) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, "SELECT hits FROM results WHERE key = ?", key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return n, err
}

func newResultPayload(r *domain.Result) resultPayload {
	p := resultPayload{
		IsAnswered:  r.IsAnswered,
		Answers:     make([]answerPayload, len(r.Answers)),
		TokenScores: r.TokenScores,
	}
	for i, a := range r.Answers {
		p.Answers[i] = answerPayload{Score: a.Score, Start: a.Start, End: a.End, Text: a.Text}
	}
	for _, sp := range r.TokenSpans {
		p.TokenSpans = append(p.TokenSpans, [2]int{sp.Start, sp.End})
	}
	return p
}

func (p resultPayload) toDomain() *domain.Result {
	r := &domain.Result{
		IsAnswered:  p.IsAnswered,
		Answers:     make([]domain.Answer, len(p.Answers)),
		TokenScores: p.TokenScores,
	}
	for i, a := range p.Answers {
		r.Answers[i] = domain.Answer{Score: a.Score, Start: a.Start, End: a.End, Text: a.Text}
	}
	for _, sp := range p.TokenSpans {
		r.TokenSpans = append(r.TokenSpans, domain.Span{Start: sp[0], End: sp[1]})
	}
	return r
}

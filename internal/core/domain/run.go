package domain

import "time"

// Run summarizes one answered batch.
type Run struct {
	ID        string
	Model     string
	Examples  int
	Failures  int
	CacheHits int
	StartedAt time.Time
	Duration  time.Duration
}

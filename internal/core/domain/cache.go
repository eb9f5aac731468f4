package domain

import "time"

// CacheStats summarizes the result cache.
type CacheStats struct {
	// Location is where the cache lives, or "memory".
	Location string

	// Entries is the number of cached results.
	Entries int

	// Hits counts how often cached results were reused.
	Hits int

	// Oldest and Newest bound the storage times. Zero when empty.
	Oldest time.Time
	Newest time.Time
}

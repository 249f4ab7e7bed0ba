package repository

import "time"

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxResults bounds the number of results kept in memory. The oldest
// saved results are evicted first. Zero or less means unbounded.
func WithMaxResults(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

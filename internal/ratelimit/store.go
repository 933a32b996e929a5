package ratelimit

import (
	"context"
	"time"
)

// Store counts events per key over a sliding window. Implementations:
// in-memory for single-process deployments, Redis for distributed ones.
type Store interface {
	// Allow records one event for key if under limit, returning the
	// outcome either way.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)

	// Reset clears the counter for a key.
	Reset(ctx context.Context, key string) error

	// CurrentCount returns the live event count for a key.
	CurrentCount(ctx context.Context, key string) (int, error)
}

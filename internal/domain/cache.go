package domain

import (
	"context"
	"time"
)

// MetricsCache holds computed dashboard metrics per user.
type MetricsCache interface {
	Get(ctx context.Context, userID string) (Metrics, error)
	Set(ctx context.Context, userID string, m Metrics) error
	Invalidate(ctx context.Context, userID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// MetricsCache implements domain.MetricsCache by storing each user's computed
// dashboard metrics as a JSON string.
//
// Key schema:
//
//	metrics:{userID} - JSON-encoded domain.Metrics
type MetricsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMetricsCache creates a MetricsCache whose entries expire after ttl. A
// zero ttl keeps entries until they are invalidated.
func NewMetricsCache(c *Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{rdb: c.rdb, ttl: ttl}
}

func metricsKey(userID string) string { return "metrics:" + userID }

// Get returns the cached metrics for userID, or domain.ErrNotFound on a miss.
func (mc *MetricsCache) Get(ctx context.Context, userID string) (domain.Metrics, error) {
	data, err := mc.rdb.Get(ctx, metricsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Metrics{}, domain.ErrNotFound
		}
		return domain.Metrics{}, fmt.Errorf("redis: get metrics %s: %w", userID, err)
	}

	var m domain.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Metrics{}, fmt.Errorf("redis: unmarshal metrics %s: %w", userID, err)
	}
	return m, nil
}

// Set stores metrics for userID.
func (mc *MetricsCache) Set(ctx context.Context, userID string, m domain.Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redis: marshal metrics %s: %w", userID, err)
	}
	if err := mc.rdb.Set(ctx, metricsKey(userID), data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set metrics %s: %w", userID, err)
	}
	return nil
}

// Invalidate drops the cached metrics for userID. Missing keys are not an
// error.
func (mc *MetricsCache) Invalidate(ctx context.Context, userID string) error {
	if err := mc.rdb.Del(ctx, metricsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate metrics %s: %w", userID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MetricsCache = (*MetricsCache)(nil)

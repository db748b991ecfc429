// Package memory holds process-local implementations of the journal's store,
// cache and lock interfaces. They back the "memory" storage mode for local
// development and stand in for Postgres and Redis in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// TradeStore implements domain.TradeStore in memory.
type TradeStore struct {
	mu     sync.RWMutex
	nextID int64
	trades []domain.Trade

	// Err, when set, is returned by every call.
	Err error
}

// NewTradeStore returns an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

func (s *TradeStore) insert(t domain.Trade) domain.Trade {
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now().UTC()
	s.trades = append(s.trades, t)
	return t
}

// InsertBatch stores every trade or none.
func (s *TradeStore) InsertBatch(_ context.Context, trades []domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, t := range trades {
		s.insert(t)
	}
	return nil
}

// Create stores a single trade and returns it with its ID set.
func (s *TradeStore) Create(_ context.Context, t domain.Trade) (domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Trade{}, s.Err
	}
	return s.insert(t), nil
}

// Delete removes a trade owned by userID.
func (s *TradeStore) Delete(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for i, t := range s.trades {
		if t.ID == id && t.UserID == userID {
			s.trades = append(s.trades[:i], s.trades[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("memory: delete trade %d: %w", id, domain.ErrNotFound)
}

func (s *TradeStore) byUser(userID string) []domain.Trade {
	var out []domain.Trade
	for _, t := range s.trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// ListByUser returns the user's trades newest first.
func (s *TradeStore) ListByUser(_ context.Context, userID string, opts domain.ListOpts) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []domain.Trade
	for _, t := range s.byUser(userID) {
		if opts.Since != nil && t.Date.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && t.Date.After(*opts.Until) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})

	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ListAllByUser returns the user's trades ordered by date ascending, ties in
// insertion order.
func (s *TradeStore) ListAllByUser(_ context.Context, userID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := s.byUser(userID)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// CountByUser returns how many trades userID has.
func (s *TradeStore) CountByUser(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.byUser(userID))), nil
}

// AuditStore implements domain.AuditStore in memory.
type AuditStore struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewAuditStore returns an empty AuditStore.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Log appends an entry.
func (s *AuditStore) Log(_ context.Context, userID, event string, detail map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, domain.AuditEntry{
		ID:        int64(len(s.entries) + 1),
		UserID:    userID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// List returns the user's entries newest first.
func (s *AuditStore) List(_ context.Context, userID string, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.AuditEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.UserID != userID {
			continue
		}
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// MetricsCache implements domain.MetricsCache in memory without expiry.
type MetricsCache struct {
	mu      sync.Mutex
	entries map[string]domain.Metrics
}

// NewMetricsCache returns an empty MetricsCache.
func NewMetricsCache() *MetricsCache {
	return &MetricsCache{entries: make(map[string]domain.Metrics)}
}

// Get returns domain.ErrNotFound on a miss.
func (c *MetricsCache) Get(_ context.Context, userID string) (domain.Metrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[userID]
	if !ok {
		return domain.Metrics{}, domain.ErrNotFound
	}
	return m, nil
}

// Set stores metrics for userID.
func (c *MetricsCache) Set(_ context.Context, userID string, m domain.Metrics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = m
	return nil
}

// Invalidate drops userID's entry.
func (c *MetricsCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// LockManager implements domain.LockManager within one process.
type LockManager struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewLockManager returns a LockManager with no locks held.
func NewLockManager() *LockManager {
	return &LockManager{held: make(map[string]time.Time)}
}

// Acquire takes key until unlock is called or ttl passes.
func (l *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, fmt.Errorf("memory: acquire lock %s: %w", key, domain.ErrLockHeld)
	}
	exp := now.Add(ttl)
	l.held[key] = exp

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[key].Equal(exp) {
				delete(l.held, key)
			}
		})
	}, nil
}

// RateLimiter implements domain.RateLimiter with a per-key sliding window.
type RateLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewRateLimiter returns a RateLimiter with no history.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{hits: make(map[string][]time.Time)}
}

// Allow counts the request when it fits within limit per window.
func (r *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)
	kept := r.hits[key][:0]
	for _, t := range r.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= limit {
		r.hits[key] = kept
		return false, nil
	}
	r.hits[key] = append(kept, now)
	return true, nil
}

var (
	_ domain.TradeStore   = (*TradeStore)(nil)
	_ domain.AuditStore   = (*AuditStore)(nil)
	_ domain.MetricsCache = (*MetricsCache)(nil)
	_ domain.LockManager  = (*LockManager)(nil)
	_ domain.RateLimiter  = (*RateLimiter)(nil)
)

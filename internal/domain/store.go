package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeStore persists journal trades keyed by an opaque user identifier.
type TradeStore interface {
	InsertBatch(ctx context.Context, trades []Trade) error
	Create(ctx context.Context, trade Trade) (Trade, error)
	Delete(ctx context.Context, userID string, id int64) error
	// ListByUser returns the newest trades first.
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]Trade, error)
	// ListAllByUser returns the full history ordered by trade date ascending,
	// which is the order the metrics aggregator expects.
	ListAllByUser(ctx context.Context, userID string) ([]Trade, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// AuditEntry is one line of a user's activity log: imports, manual entries
// and deletions.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log. List returns the newest
// entries first.
type AuditStore interface {
	Log(ctx context.Context, userID, event string, detail map[string]any) error
	List(ctx context.Context, userID string, opts ListOpts) ([]AuditEntry, error)
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// AuditStore keeps the per-user activity log in the audit_log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore on pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log records event for userID with detail stored as JSONB.
func (s *AuditStore) Log(ctx context.Context, userID, event string, detail map[string]any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres: encode %s detail: %w", event, err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (user_id, event, detail) VALUES ($1, $2, $3)`,
		userID, event, raw,
	); err != nil {
		return fmt.Errorf("postgres: insert audit %s: %w", event, err)
	}
	return nil
}

// List returns one page of userID's activity, newest first.
func (s *AuditStore) List(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	q := newListQuery(`SELECT id, user_id, event, detail, created_at FROM audit_log`, userID).
		within("created_at", opts).
		orderedPage("created_at DESC, id DESC", opts)

	rows, err := s.pool.Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (domain.AuditEntry, error) {
	var (
		e   domain.AuditEntry
		raw []byte
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Event, &raw, &e.CreatedAt); err != nil {
		return e, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Detail); err != nil {
			return e, fmt.Errorf("decode %s detail: %w", e.Event, err)
		}
	}
	return e, nil
}

var _ domain.AuditStore = (*AuditStore)(nil)

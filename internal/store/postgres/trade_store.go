package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, user_id, source, import_id, symbol, asset_category,
	currency, side, trade_date, raw_date, quantity, price, profit_loss,
	exit_date, exit_quantity, exit_price, commission, status, notes, created_at`

const tradeInsert = `
	INSERT INTO trades (
		user_id, source, import_id, symbol, asset_category,
		currency, side, trade_date, raw_date, quantity,
		price, profit_loss, exit_date, exit_quantity, exit_price,
		commission, status, notes
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15,
		$16, $17, $18
	)`

// tradeArgs flattens t into tradeInsert's parameter order. An unparsed entry
// date is stored as NULL so the raw text is the only record of it.
func tradeArgs(t domain.Trade) []any {
	return []any{
		t.UserID, t.Source, t.ImportID, t.Symbol, t.AssetCategory,
		t.Currency, t.Side, nullTime(t.Date), t.RawDate, t.Quantity,
		t.Price, t.ProfitLoss, t.ExitDate, t.ExitQuantity, t.ExitPrice,
		t.Commission, t.Status, t.Notes,
	}
}

func nullTime(ts time.Time) *time.Time {
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var t domain.Trade
	var date *time.Time
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Source, &t.ImportID, &t.Symbol, &t.AssetCategory,
		&t.Currency, &t.Side, &date, &t.RawDate, &t.Quantity, &t.Price, &t.ProfitLoss,
		&t.ExitDate, &t.ExitQuantity, &t.ExitPrice, &t.Commission, &t.Status, &t.Notes, &t.CreatedAt,
	); err != nil {
		return domain.Trade{}, err
	}
	if date != nil {
		t.Date = date.UTC()
	}
	return t, nil
}

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// InsertBatch inserts every trade of one import in a single transaction using
// a pgx Batch, so an import is stored entirely or not at all.
func (s *TradeStore) InsertBatch(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin trade batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(tradeInsert, tradeArgs(t)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range trades {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: insert trade batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close trade batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit trade batch: %w", err)
	}
	return nil
}

// Create inserts a single trade and returns it with its generated ID and
// creation time.
func (s *TradeStore) Create(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	query := tradeInsert + ` RETURNING ` + tradeSelectCols
	created, err := scanTrade(s.pool.QueryRow(ctx, query, tradeArgs(t)...))
	if err != nil {
		return domain.Trade{}, fmt.Errorf("postgres: create trade: %w", err)
	}
	return created, nil
}

// Delete removes one of the user's trades. Trades owned by someone else are
// reported as domain.ErrNotFound.
func (s *TradeStore) Delete(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: delete trade %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete trade %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's trades newest first with pagination and
// optional date filtering.
func (s *TradeStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Trade, error) {
	q := newListQuery(`SELECT `+tradeSelectCols+` FROM trades`, userID).
		within("trade_date", opts).
		orderedPage("trade_date DESC NULLS LAST, id DESC", opts)

	rows, err := s.pool.Query(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades by user: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades by user: %w", err)
	}
	return trades, nil
}

// ListAllByUser returns the user's full history ordered by trade date
// ascending. Undated rows sort first, in insertion order.
func (s *TradeStore) ListAllByUser(ctx context.Context, userID string) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE user_id = $1
		ORDER BY trade_date ASC NULLS FIRST, id ASC`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list all trades by user: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan all trades by user: %w", err)
	}
	return trades, nil
}

// CountByUser returns how many trades the user has.
func (s *TradeStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count trades by user: %w", err)
	}
	return n, nil
}

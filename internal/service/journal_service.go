package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/metrics"
)

// maxListLimit caps a single page of trades.
const maxListLimit = 500

// JournalService serves a user's trade history and the dashboard metrics
// computed from it.
type JournalService struct {
	trades domain.TradeStore
	audit  domain.AuditStore
	cache  domain.MetricsCache
	logger *slog.Logger
}

// NewJournalService creates a JournalService with all required dependencies.
func NewJournalService(
	trades domain.TradeStore,
	audit domain.AuditStore,
	cache domain.MetricsCache,
	logger *slog.Logger,
) *JournalService {
	return &JournalService{
		trades: trades,
		audit:  audit,
		cache:  cache,
		logger: logger.With(slog.String("component", "journal_service")),
	}
}

// ListTrades returns one page of the user's trades, newest first, and the
// user's total trade count.
func (s *JournalService) ListTrades(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Trade, int64, error) {
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	trades, err := s.trades.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("journal_service: list trades: %w", err)
	}
	total, err := s.trades.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("journal_service: count trades: %w", err)
	}
	return trades, total, nil
}

// AddTrade stores a manually entered trade. A trade with a P&L is recorded
// as closed unless the caller says otherwise.
func (s *JournalService) AddTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.UserID == "" {
		return domain.Trade{}, fmt.Errorf("journal_service: add trade: %w", domain.ErrUnauthorized)
	}
	if t.Symbol == "" {
		return domain.Trade{}, fmt.Errorf("journal_service: add trade: symbol is required: %w", domain.ErrInvalidTrade)
	}
	if t.Date.IsZero() {
		return domain.Trade{}, fmt.Errorf("journal_service: add trade: date is required: %w", domain.ErrInvalidTrade)
	}

	t.Source = domain.TradeSourceManual
	t.Side = domain.Side(strings.ToLower(string(t.Side)))
	t.Quantity = math.Abs(t.Quantity)
	t.Commission = math.Abs(t.Commission)
	if t.Status == "" {
		t.Status = domain.TradeStatusOpen
		if t.ProfitLoss != nil {
			t.Status = domain.TradeStatusClosed
		}
	}
	if t.RawDate == "" {
		t.RawDate = t.Date.Format("2006-01-02")
	}

	created, err := s.trades.Create(ctx, t)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("journal_service: add trade: %w", err)
	}

	s.invalidate(ctx, t.UserID)
	s.auditLog(ctx, t.UserID, "trade_added", map[string]any{
		"trade_id": created.ID,
		"symbol":   created.Symbol,
	})
	return created, nil
}

// DeleteTrade removes one of the user's trades.
func (s *JournalService) DeleteTrade(ctx context.Context, userID string, id int64) error {
	if err := s.trades.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("journal_service: delete trade %d: %w", id, err)
	}

	s.invalidate(ctx, userID)
	s.auditLog(ctx, userID, "trade_deleted", map[string]any{"trade_id": id})
	return nil
}

// Metrics returns the user's dashboard statistics, computing them over the
// date-ordered history on a cache miss.
func (s *JournalService) Metrics(ctx context.Context, userID string) (domain.Metrics, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "metrics cache read failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	history, err := s.trades.ListAllByUser(ctx, userID)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("journal_service: load history: %w", err)
	}

	m := metrics.Calculate(history)
	if err := s.cache.Set(ctx, userID, m); err != nil {
		s.logger.WarnContext(ctx, "metrics cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return m, nil
}

// EquityCurve returns the cumulative P&L after each trade of the user's
// date-ordered history.
func (s *JournalService) EquityCurve(ctx context.Context, userID string) ([]domain.EquityPoint, error) {
	history, err := s.trades.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("journal_service: load history: %w", err)
	}
	return metrics.EquityCurve(history), nil
}

// Activity returns one page of the user's audit log, newest first. The
// limit is capped like ListTrades.
func (s *JournalService) Activity(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	entries, err := s.audit.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("journal_service: list activity: %w", err)
	}
	return entries, nil
}

func (s *JournalService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "metrics cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *JournalService) auditLog(ctx context.Context, userID, event string, detail map[string]any) {
	if err := s.audit.Log(ctx, userID, event, detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

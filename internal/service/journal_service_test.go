package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/statement"
	"github.com/alanyoungcy/tradejournal/internal/store/memory"
)

type failingCache struct{ err error }

func (c failingCache) Get(context.Context, string) (domain.Metrics, error) {
	return domain.Metrics{}, c.err
}
func (c failingCache) Set(context.Context, string, domain.Metrics) error { return c.err }
func (c failingCache) Invalidate(context.Context, string) error          { return c.err }

func pnl(v float64) *float64 { return &v }

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func seededJournal(t *testing.T) (*JournalService, *memory.TradeStore, *memory.MetricsCache) {
	t.Helper()
	trades := memory.NewTradeStore()
	cache := memory.NewMetricsCache()
	// Inserted out of date order; metrics must see them date ascending.
	require.NoError(t, trades.InsertBatch(context.Background(), []domain.Trade{
		{UserID: "u1", Symbol: "MSFT", Date: day(2), ProfitLoss: pnl(-50)},
		{UserID: "u1", Symbol: "AAPL", Date: day(1), ProfitLoss: pnl(100)},
		{UserID: "u1", Symbol: "TSLA", Date: day(7), ProfitLoss: pnl(-80)},
		{UserID: "u1", Symbol: "AAPL", Date: day(4), ProfitLoss: pnl(30)},
		{UserID: "u2", Symbol: "NVDA", Date: day(1), ProfitLoss: pnl(1000)},
	}))
	return NewJournalService(trades, memory.NewAuditStore(), cache, discardLogger()), trades, cache
}

func TestJournal_MetricsUsesDateOrder(t *testing.T) {
	svc, _, cache := seededJournal(t)

	m, err := svc.Metrics(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 100.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 2.0, m.AverageHoldingPeriod)
	assert.Equal(t, "AAPL", m.MostTradedAsset)

	cached, err := cache.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, m, cached)
}

func TestJournal_MetricsIgnoresUndatedTrades(t *testing.T) {
	parsed := statement.ParseGeneric("date,symbol,type,quantity,price,pnl\n" +
		"not-a-date,AAPL,long,1,100,5\n" +
		"2025-01-01,MSFT,long,1,100,10\n" +
		"2025-01-03,TSLA,short,1,100,-4\n")
	require.Len(t, parsed, 3)
	for i := range parsed {
		parsed[i].UserID = "u1"
	}

	trades := memory.NewTradeStore()
	require.NoError(t, trades.InsertBatch(context.Background(), parsed))
	svc := NewJournalService(trades, memory.NewAuditStore(), memory.NewMetricsCache(), discardLogger())

	m, err := svc.Metrics(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 11.0, m.TotalReturn)
	assert.Equal(t, 2.0, m.AverageHoldingPeriod)

	points, err := svc.EquityCurve(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 15.0, points[0].Cumulative)
}

func TestJournal_MetricsServedFromCache(t *testing.T) {
	svc, _, cache := seededJournal(t)
	require.NoError(t, cache.Set(context.Background(), "u1", domain.Metrics{TotalTrades: 42}))

	m, err := svc.Metrics(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 42, m.TotalTrades)
}

func TestJournal_MetricsSurvivesCacheOutage(t *testing.T) {
	trades := memory.NewTradeStore()
	require.NoError(t, trades.InsertBatch(context.Background(), []domain.Trade{
		{UserID: "u1", Symbol: "AAPL", Date: day(1), ProfitLoss: pnl(10)},
	}))
	svc := NewJournalService(trades, memory.NewAuditStore(), failingCache{err: errors.New("redis down")}, discardLogger())

	m, err := svc.Metrics(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalTrades)
	assert.Equal(t, 1.0, m.WinRate)
}

func TestJournal_MetricsEmptyHistory(t *testing.T) {
	svc, _, _ := seededJournal(t)

	m, err := svc.Metrics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.Metrics{}, m)
}

func TestJournal_EquityCurve(t *testing.T) {
	svc, _, _ := seededJournal(t)

	points, err := svc.EquityCurve(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, points, 4)

	var cumulative []float64
	for _, p := range points {
		cumulative = append(cumulative, p.Cumulative)
	}
	assert.Equal(t, []float64{100, 50, 80, 0}, cumulative)
	assert.Equal(t, day(1), points[0].Date)
}

func TestJournal_ListTrades(t *testing.T) {
	svc, _, _ := seededJournal(t)

	trades, total, err := svc.ListTrades(context.Background(), "u1", domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, trades, 2)
	assert.Equal(t, "TSLA", trades[0].Symbol)
	assert.Equal(t, "AAPL", trades[1].Symbol)
}

func TestJournal_AddTrade(t *testing.T) {
	svc, trades, cache := seededJournal(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "u1", domain.Metrics{TotalTrades: 4}))

	created, err := svc.AddTrade(ctx, domain.Trade{
		UserID:     "u1",
		Symbol:     " amd ",
		Side:       "Long",
		Date:       day(9),
		Quantity:   -3,
		Price:      120,
		ProfitLoss: pnl(15),
	})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "AMD", created.Symbol)
	assert.Equal(t, domain.SideLong, created.Side)
	assert.Equal(t, domain.TradeSourceManual, created.Source)
	assert.Equal(t, domain.TradeStatusClosed, created.Status)
	assert.Equal(t, 3.0, created.Quantity)
	assert.Equal(t, "2025-01-09", created.RawDate)

	n, _ := trades.CountByUser(ctx, "u1")
	assert.Equal(t, int64(5), n)

	_, err = cache.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJournal_AddTradeRejectsInvalid(t *testing.T) {
	svc, _, _ := seededJournal(t)
	ctx := context.Background()

	_, err := svc.AddTrade(ctx, domain.Trade{UserID: "u1", Date: day(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidTrade)

	_, err = svc.AddTrade(ctx, domain.Trade{UserID: "u1", Symbol: "AAPL"})
	assert.ErrorIs(t, err, domain.ErrInvalidTrade)

	_, err = svc.AddTrade(ctx, domain.Trade{Symbol: "AAPL", Date: day(1)})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJournal_DeleteTrade(t *testing.T) {
	svc, trades, _ := seededJournal(t)
	ctx := context.Background()

	all, err := trades.ListAllByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, all, 1)

	assert.ErrorIs(t, svc.DeleteTrade(ctx, "u1", all[0].ID), domain.ErrNotFound)
	require.NoError(t, svc.DeleteTrade(ctx, "u2", all[0].ID))

	n, _ := trades.CountByUser(ctx, "u2")
	assert.Zero(t, n)
}

func TestJournal_Activity(t *testing.T) {
	svc, trades, _ := seededJournal(t)
	ctx := context.Background()

	created, err := svc.AddTrade(ctx, domain.Trade{UserID: "u1", Symbol: "amd", Date: day(9)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTrade(ctx, "u1", created.ID))

	entries, err := svc.Activity(ctx, "u1", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "trade_deleted", entries[0].Event)
	assert.Equal(t, "trade_added", entries[1].Event)
	assert.Equal(t, "AMD", entries[1].Detail["symbol"])

	entries, err = svc.Activity(ctx, "u1", domain.ListOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = svc.Activity(ctx, "u2", domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	n, _ := trades.CountByUser(ctx, "u1")
	assert.Equal(t, int64(4), n)
}

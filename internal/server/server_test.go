package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/server/handler"
	"github.com/alanyoungcy/tradejournal/internal/service"
	"github.com/alanyoungcy/tradejournal/internal/store/memory"
)

const genericCSV = `Date,Symbol,Type,Quantity,Price,PnL
2025-01-02,AAPL,long,10,150,100
2025-01-03,MSFT,short,5,300,-50
2025-01-06,AAPL,long,10,155,30
`

func newTestHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	trades := memory.NewTradeStore()
	audit := memory.NewAuditStore()
	cache := memory.NewMetricsCache()

	journal := service.NewJournalService(trades, audit, cache, logger)
	imports := service.NewImportService(service.ImportDeps{
		Trades: trades,
		Audit:  audit,
		Cache:  cache,
		Locks:  memory.NewLockManager(),
	}, service.ImportConfig{LockTTL: time.Minute, MaxUploadBytes: 1 << 20}, logger)

	handlers := Handlers{
		Health:   handler.NewHealthHandler(map[string]handler.Pinger{}, logger),
		Trades:   handler.NewTradeHandler(journal, logger),
		Imports:  handler.NewImportHandler(imports, 1<<20, logger),
		Metrics:  handler.NewMetricsHandler(journal, logger),
		Activity: handler.NewActivityHandler(journal, logger),
	}
	return NewHandler(cfg, handlers, memory.NewRateLimiter(), logger)
}

func do(h http.Handler, method, target, user string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer secret")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_ImportThenMetrics(t *testing.T) {
	h := newTestHandler(t, Config{APIKey: "secret"})

	rec := do(h, http.MethodPost, "/api/imports?format=generic&filename=trades.csv", "alice", strings.NewReader(genericCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res domain.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 3, res.Closed)

	rec = do(h, http.MethodGet, "/api/metrics", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m domain.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 3, m.TotalTrades)
	assert.InDelta(t, 80, m.TotalReturn, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
	assert.Equal(t, "AAPL", m.MostTradedAsset)

	rec = do(h, http.MethodGet, "/api/trades?limit=2", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Trades []domain.Trade `json:"trades"`
		Total  int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Trades, 2)
	assert.Equal(t, int64(3), page.Total)

	// Other users see nothing.
	rec = do(h, http.MethodGet, "/api/metrics", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Zero(t, m.TotalTrades)

	rec = do(h, http.MethodDelete, "/api/trades/"+strconv.FormatInt(page.Trades[0].ID, 10), "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(h, http.MethodDelete, "/api/trades/"+strconv.FormatInt(page.Trades[0].ID, 10), "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/api/activity", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activity struct {
		Entries []domain.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &activity))
	require.Len(t, activity.Entries, 2)
	assert.Equal(t, "trade_deleted", activity.Entries[0].Event)
	assert.Equal(t, "trades_imported", activity.Entries[1].Event)
}

func TestRoutes_AuthAndUser(t *testing.T) {
	h := newTestHandler(t, Config{APIKey: "secret"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/api/trades", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPut, "/api/trades", "alice", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_ImportRateLimit(t *testing.T) {
	h := newTestHandler(t, Config{APIKey: "secret", ImportRateLimit: 1, ImportRateWindow: time.Minute})

	rec := do(h, http.MethodPost, "/api/imports?format=generic", "alice", strings.NewReader(genericCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/imports?format=generic", "alice", strings.NewReader(genericCSV))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = do(h, http.MethodPost, "/api/imports?format=generic", "bob", strings.NewReader(genericCSV))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(Config{}, Handlers{
		Health:   handler.NewHealthHandler(nil, logger),
		Trades:   handler.NewTradeHandler(nil, logger),
		Imports:  handler.NewImportHandler(nil, 1<<20, logger),
		Metrics:  handler.NewMetricsHandler(nil, logger),
		Activity: handler.NewActivityHandler(nil, logger),
	}, nil, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-done)
}

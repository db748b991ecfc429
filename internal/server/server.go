// Package server exposes the trade journal over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/server/handler"
	"github.com/alanyoungcy/tradejournal/internal/server/middleware"
)

const healthPath = "/api/health"

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// ImportRateLimit caps import requests per user per ImportRateWindow.
	// Zero disables the limit.
	ImportRateLimit  int
	ImportRateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Trades   *handler.TradeHandler
	Imports  *handler.ImportHandler
	Metrics  *handler.MetricsHandler
	Activity *handler.ActivityHandler
}

// Server is the HTTP API server for the trade journal.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered. limiter may be
// nil, which disables import rate limiting.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewHandler(cfg, handlers, limiter, logger),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed and wrapped http.Handler. It is exported so
// tests can exercise the full middleware chain without a listener.
func NewHandler(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check (no auth or user required).
	mux.HandleFunc("GET "+healthPath, handlers.Health.HealthCheck)

	// Trade endpoints.
	mux.HandleFunc("GET /api/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("POST /api/trades", handlers.Trades.CreateTrade)
	mux.HandleFunc("DELETE /api/trades/{id}", handlers.Trades.DeleteTrade)

	// Import endpoints, rate limited per user.
	limit := middleware.RateLimit(limiter, "imports", cfg.ImportRateLimit, cfg.ImportRateWindow, logger)
	mux.Handle("POST /api/imports", limit(http.HandlerFunc(handlers.Imports.Upload)))
	mux.Handle("POST /api/imports/blob", limit(http.HandlerFunc(handlers.Imports.ImportBlob)))
	mux.HandleFunc("GET /api/imports/uploads", handlers.Imports.ListUploads)

	// Metrics endpoints.
	mux.HandleFunc("GET /api/metrics", handlers.Metrics.GetMetrics)
	mux.HandleFunc("GET /api/metrics/equity", handlers.Metrics.GetEquityCurve)

	// Activity log.
	mux.HandleFunc("GET /api/activity", handlers.Activity.ListActivity)

	// Build the middleware chain; the last applied runs first.
	var h http.Handler = mux
	h = middleware.RequireUser(healthPath)(h)
	h = middleware.Auth(cfg.APIKey, healthPath)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// MetricsService defines the methods that the metrics handler requires from
// the service layer.
type MetricsService interface {
	Metrics(ctx context.Context, userID string) (domain.Metrics, error)
	EquityCurve(ctx context.Context, userID string) ([]domain.EquityPoint, error)
}

// MetricsHandler serves the dashboard statistics.
type MetricsHandler struct {
	metrics MetricsService
	logger  *slog.Logger
}

// NewMetricsHandler creates a MetricsHandler with the given service and logger.
func NewMetricsHandler(metrics MetricsService, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, logger: logHandler(logger, "metrics")}
}

// GetMetrics returns the caller's summary statistics.
// GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	m, err := h.metrics.Metrics(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to compute metrics")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type equityResponse struct {
	Points []domain.EquityPoint `json:"points"`
}

// GetEquityCurve returns the cumulative P&L series for the performance chart.
// GET /api/metrics/equity
func (h *MetricsHandler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	points, err := h.metrics.EquityCurve(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to compute equity curve")
		return
	}
	if points == nil {
		points = []domain.EquityPoint{}
	}
	writeJSON(w, http.StatusOK, equityResponse{Points: points})
}

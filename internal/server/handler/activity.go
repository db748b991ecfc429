package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// ActivityService defines the methods that the activity handler requires
// from the service layer.
type ActivityService interface {
	Activity(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

// ActivityHandler serves the caller's import and edit history.
type ActivityHandler struct {
	activity ActivityService
	logger   *slog.Logger
}

// NewActivityHandler creates an ActivityHandler with the given service and logger.
func NewActivityHandler(activity ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logHandler(logger, "activity")}
}

type activityResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// ListActivity returns one page of the caller's audit log, newest first.
// GET /api/activity?limit=50&offset=0&since=2025-01-01
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	opts := parseListOpts(r)
	entries, err := h.activity.Activity(r.Context(), user, opts)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Entries: entries, Limit: opts.Limit, Offset: opts.Offset})
}

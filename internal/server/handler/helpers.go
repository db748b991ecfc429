package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/server/middleware"
	"github.com/alanyoungcy/tradejournal/internal/statement"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoTrades):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTrade), errors.Is(err, statement.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNoBlobStorage):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the client-facing text for err. Internal failures are not
// described beyond fallback.
func publicMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrNoTrades):
		return domain.ErrNoTrades.Error()
	case errors.Is(err, domain.ErrLockHeld):
		return "another import is already running for this user"
	case errors.Is(err, statement.ErrUnknownFormat):
		return "unknown statement format"
	case statusFor(err) == http.StatusInternalServerError:
		return fallback
	default:
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return domain.ErrTooLarge.Error()
		}
		return err.Error()
	}
}

// writeServiceError logs err and writes the mapped status and message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), fallback, slog.String("error", err.Error()))
	} else {
		logger.DebugContext(r.Context(), fallback, slog.String("error", err.Error()))
	}
	writeError(w, status, publicMessage(err, fallback))
}

// userID returns the caller stored by middleware.RequireUser, writing a 401
// when it is missing.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+middleware.UserHeader+" header")
	}
	return id, ok
}

// parseListOpts extracts pagination and date filter parameters from the query
// string. Defaults: limit=50 (max 500), offset=0. since and until accept
// RFC 3339 timestamps or YYYY-MM-DD dates.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	opts := domain.ListOpts{Limit: limit, Offset: offset}
	if ts, ok := parseTime(q.Get("since")); ok {
		opts.Since = &ts
	}
	if ts, ok := parseTime(q.Get("until")); ok {
		opts.Until = &ts
	}
	return opts
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}

package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UserHeader carries the opaque identifier of the journal owner. The
// frontend's auth provider resolves the user; this service only scopes data
// by the value.
const UserHeader = "X-User-ID"

const maxUserIDLen = 128

type userKey struct{}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// RequireUser rejects requests without a usable X-User-ID header and stores
// the identifier in the request context. Requests for publicPaths pass
// through untouched.
func RequireUser(publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
				return
			}
			if len(userID) > maxUserIDLen {
				writeError(w, http.StatusBadRequest, UserHeader+" header too long")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

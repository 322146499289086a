package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type contextKey string

// UserIDKey is the context key under which the authenticated user ID is
// stored.
const UserIDKey contextKey = "userID"

// userIDHeader carries the authenticated user's ID, injected by the edge
// gateway that terminates authentication in front of this service.
const userIDHeader = "X-User-ID"

// WithUser extracts the caller's identity from the gateway header and stores
// it on the request context. Requests without a valid identity are rejected.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user ID stored by WithUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

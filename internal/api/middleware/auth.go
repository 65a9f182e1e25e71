// Package middleware carries the request identity: every API route below it
// sees a resolved user id and touches only that user's data.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/oshaani/workspace-employee/internal/auth/apikey"
	"github.com/oshaani/workspace-employee/internal/auth/session"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user id set by RequireUser, or empty.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID injects a user id into the context. Exposed for handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequireUser resolves the caller: a Bearer API key first, then the browser
// session cookie. Requests with neither get a 401.
func RequireUser(keys *apikey.Store, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				if userID, ok := keys.Lookup(raw); ok {
					next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
					return
				}
				unauthorized(w, "Invalid API key")
				return
			}

			if userID, err := sessions.UserFromRequest(r); err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}

			unauthorized(w, "Authentication required: log in at /auth/google/login or send a Bearer API key")
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": {"message": "` + message + `", "type": "authentication_error"}}`))
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

// SessionHeader carries the opaque id of one browsing session (a tab).
const SessionHeader = "X-Session-ID"

const maxSessionIDLength = 128

// Session requires the X-Session-ID header and stores its value in the
// request context for session-scoped state.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" || len(id) > maxSessionIDLength {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "MISSING_SESSION",
					Message: SessionHeader + " header is required",
				},
			})
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		ctx = logger.WithSessionID(ctx, id)
		ctx = enrichLogger(ctx, slog.String("session_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext returns the session id stored by Session.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSessionID stores a session id the way Session does.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

type contextKeyType string

const (
	userIDKey       contextKeyType = "user_id"
	sessionTokenKey contextKeyType = "session_token"
	sessionIDKey    contextKeyType = "session_id"
)

// TokenResolver maps a backend session token to the shopper it was issued
// for. A NotFound or Unauthorized error means the token is not recognised.
type TokenResolver func(ctx context.Context, token string) (userID int64, err error)

// Auth requires a bearer session token, resolves it to a user id and stores
// both in the request context.
func Auth(resolve TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}
			token := strings.TrimSpace(parts[1])

			userID, err := resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrUnauthorized) {
					writeAuthError(w, "invalid or expired session")
					return
				}
				httputil.WriteError(w, r, err, nil)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, sessionTokenKey, token)
			ctx = logger.WithUserID(ctx, strconv.FormatInt(userID, 10))
			ctx = enrichLogger(ctx, slog.Int64("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the user id stored by Auth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// SessionTokenFromContext returns the bearer token accepted by Auth.
func SessionTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(sessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// WithUserID stores a user id the way Auth does. It is used by tests and by
// handlers mounted without Auth.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeAuthError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

type requestLoggerKeyType struct{}

var requestLoggerKey requestLoggerKeyType

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// trace_id and span_id and stores it with logger.NewContext.
// Handlers retrieve it with logger.FromContext. Auth and Session add user_id
// and session_id to it once they have run.
//
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)
			ctx = context.WithValue(ctx, requestLoggerKey, true)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// enrichLogger adds attr to the request-scoped logger when RequestLogger is
// mounted. Without it ctx is returned unchanged.
func enrichLogger(ctx context.Context, attr slog.Attr) context.Context {
	if mounted, _ := ctx.Value(requestLoggerKey).(bool); !mounted {
		return ctx
	}
	return logger.NewContext(ctx, logger.FromContext(ctx).With(attr))
}

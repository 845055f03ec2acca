package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/ReminderGo/pkg/logger"
)

// RequestLogger stores a logger enriched with the correlation and trace IDs
// in the request context. Mount it after RequestLogging and Tracing.
// Handlers fetch it with logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserLogger is called once a request is authenticated. It records the
// user ID and rebinds the request-scoped logger so later lines carry it.
func WithUserLogger(ctx context.Context, userID int64) context.Context {
	ctx = logger.WithUserID(ctx, userID)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.Int64("user_id", userID)))
}

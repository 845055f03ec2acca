package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
	"github.com/utafrali/ReminderGo/pkg/httputil"
)

// IdentityResolver validates a bearer token and returns a context carrying
// the authenticated principal. Any error is reported to the client as 401.
type IdentityResolver func(ctx context.Context, token string) (context.Context, error)

// NotAuthenticated is returned when a protected route is called without a
// usable Authorization header.
func NotAuthenticated() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "NOT_AUTHENTICATED",
		Message: "Not authenticated",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrInvalidCredentials,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth rejects requests without a bearer token or whose token resolve refuses.
// Rejections never reach the wrapped handler.
func Auth(resolve IdentityResolver, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httputil.WriteError(w, r, NotAuthenticated(), l)
				return
			}

			ctx, err := resolve(r.Context(), token)
			if err != nil {
				if apperrors.HTTPStatus(err) != http.StatusUnauthorized {
					httputil.WriteError(w, r, err, l)
					return
				}
				httputil.WriteError(w, r, apperrors.InvalidCredentials(), l)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

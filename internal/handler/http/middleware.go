package http

import (
	"context"
	"mime"
	"net/http"

	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/internal/service"
	"github.com/utafrali/ReminderGo/pkg/httputil"
	"github.com/utafrali/ReminderGo/pkg/middleware"
)

type userContextKey struct{}

// withUser stores the authenticated user in ctx.
func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// CurrentUser returns the user resolved by the auth middleware, or nil on
// unauthenticated routes.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey{}).(*domain.User)
	return user
}

// IdentityResolver bridges the auth middleware to AuthService. The resolved
// user is stored in the context and bound to the request logger.
func IdentityResolver(auth *service.AuthService) middleware.IdentityResolver {
	return func(ctx context.Context, token string) (context.Context, error) {
		user, err := auth.ResolveIdentity(ctx, token)
		if err != nil {
			return nil, err
		}
		ctx = middleware.WithUserLogger(ctx, user.ID)
		return withUser(ctx, user), nil
	}
}

// ContentTypeJSON rejects request bodies declared as anything other than
// application/json. A missing Content-Type is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
						Detail: "Content-Type must be application/json",
						Code:   "UNSUPPORTED_MEDIA_TYPE",
					})
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

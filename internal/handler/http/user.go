package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ReminderGo/internal/service"
	"github.com/utafrali/ReminderGo/pkg/httputil"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteMe handles DELETE /users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if err := h.service.Delete(r.Context(), user.ID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, "User deleted successfully")
}

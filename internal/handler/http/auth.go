package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/ReminderGo/internal/service"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
	"github.com/utafrali/ReminderGo/pkg/httputil"
	"github.com/utafrali/ReminderGo/pkg/validator"
)

const maxBodyBytes = 1 << 20

// AuthHandler handles registration and token issuance.
type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(auth *service.AuthService, users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: logger}
}

// loginFailed is the single response for every rejected login.
func loginFailed() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "Incorrect email or password",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrInvalidCredentials,
	}
}

// Register handles POST /users/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Token handles POST /token. Credentials arrive as an OAuth2 password-grant
// form with the email in "username".
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := r.ParseForm(); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	form := LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := validator.Validate(form); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	token, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			err = loginFailed()
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, token)
}

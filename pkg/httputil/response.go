package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
	"github.com/utafrali/ReminderGo/pkg/logger"
	"github.com/utafrali/ReminderGo/pkg/validator"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail    string            `json:"detail"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// MessageResponse is returned by endpoints that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg} with status 200.
func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// WriteError renders err as an ErrorResponse. AppErrors keep their code and
// message, bare sentinels are mapped by kind and anything else becomes a
// logged 500. Credential failures carry a WWW-Authenticate challenge.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	resp := ErrorResponse{RequestID: requestID}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
		resp.Detail = appErr.Message
	} else {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			resp.Code, resp.Detail = "NOT_FOUND", "resource not found"
		case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
			resp.Code, resp.Detail = "ALREADY_EXISTS", "resource already exists"
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			resp.Code, resp.Detail = "INVALID_CREDENTIALS", "Could not validate credentials"
		case errors.Is(err, apperrors.ErrValidation):
			resp.Code, resp.Detail = "VALIDATION_ERROR", err.Error()
		case errors.Is(err, apperrors.ErrInvalidInput):
			resp.Code, resp.Detail = "INVALID_INPUT", err.Error()
		default:
			resp.Code, resp.Detail = "INTERNAL_ERROR", "an internal error occurred"
		}
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	WriteJSON(w, status, resp)
}

// WriteValidationError writes a 422. Field-level errors from the validator
// package are expanded into the fields map; anything else (typically a JSON
// decoding failure) is reported as a single detail message.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Detail:    err.Error(),
		Code:      "VALIDATION_ERROR",
		RequestID: requestID,
	})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Detail:    "request validation failed",
		Code:      "VALIDATION_ERROR",
		Fields:    valErr.Fields(),
		RequestID: requestID,
	})
}

// ParseID parses a positive integer path parameter. On failure it writes a
// 422 naming the parameter and returns false so the caller can return early.
func ParseID(w http.ResponseWriter, r *http.Request, name, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Detail:    "invalid " + name + ": " + raw,
			Code:      "INVALID_PARAMETER",
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		})
		return 0, false
	}
	return id, true
}

package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
	"github.com/utafrali/ReminderGo/pkg/logger"
	"github.com/utafrali/ReminderGo/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- WriteJSON ---

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"id": 1})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())
}

func TestWriteMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMessage(rec, "Reminder deleted successfully")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Reminder deleted successfully"}`, rec.Body.String())
}

// --- WriteError ---

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reminders/7", nil)

	WriteError(rec, req, apperrors.NotFound("Reminder"), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Code)
	assert.Equal(t, "Reminder not found", resp.Detail)
}

func TestWriteError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := fmt.Errorf("get reminder: %w", apperrors.NotFound("Reminder"))
	WriteError(rec, req, err, testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reminder not found", decodeError(t, rec).Detail)
}

func TestWriteError_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{apperrors.ErrConflict, http.StatusConflict, "ALREADY_EXISTS"},
		{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{apperrors.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestWriteError_Unauthorized_SetsChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)

	WriteError(rec, req, apperrors.InvalidCredentials(), testLogger())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Could not validate credentials", decodeError(t, rec).Detail)
}

func TestWriteError_NotFound_NoChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestWriteError_UnknownError_Returns500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, fmt.Errorf("connection reset by peer"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.NotContains(t, resp.Detail, "connection reset")
}

func TestWriteError_ValidationError(t *testing.T) {
	type body struct {
		Title string `json:"title" validate:"required"`
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	WriteError(rec, req, validator.Validate(body{}), testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, "is required", resp.Fields["title"])
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	assert.Equal(t, "corr-123", decodeError(t, rec).RequestID)
}

func TestWriteError_NoCorrelationID_OmitsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	_, hasRequestID := raw["request_id"]
	assert.False(t, hasRequestID)
	_, hasFields := raw["fields"]
	assert.False(t, hasFields)
}

func TestWriteError_NilFallbackLogger(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.NotPanics(t, func() {
		WriteError(rec, req, fmt.Errorf("boom"), nil)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- WriteValidationError ---

func TestWriteValidationError_FieldErrors(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/", nil)

	WriteValidationError(rec, req, validator.Validate(body{Email: "nope"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "must be a valid email address", resp.Fields["email"])
}

func TestWriteValidationError_DecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	WriteValidationError(rec, req, fmt.Errorf("decode request body: unexpected EOF"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Detail, "unexpected EOF")
}

// --- ParseID ---

func TestParseID_Valid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id, ok := ParseID(rec, req, "reminder_id", "42")

	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, http.StatusOK, rec.Code) // nothing written
}

func TestParseID_Invalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "0", "-3", "1.5", "99999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			id, ok := ParseID(rec, req, "reminder_id", raw)

			assert.False(t, ok)
			assert.Zero(t, id)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, "INVALID_PARAMETER", resp.Code)
			assert.Contains(t, resp.Detail, "reminder_id")
		})
	}
}

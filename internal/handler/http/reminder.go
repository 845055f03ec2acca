package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReminderGo/internal/service"
	"github.com/utafrali/ReminderGo/pkg/httputil"
	"github.com/utafrali/ReminderGo/pkg/pagination"
	"github.com/utafrali/ReminderGo/pkg/validator"
)

// maxUpcomingLimit caps ?limit= on GET /reminders/upcoming.
const maxUpcomingLimit = 100

// ReminderHandler handles HTTP requests for the caller's reminders.
type ReminderHandler struct {
	service *service.ReminderService
	logger  *slog.Logger
}

// NewReminderHandler creates a new reminder HTTP handler.
func NewReminderHandler(svc *service.ReminderService, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{service: svc, logger: logger}
}

// Create handles POST /reminders/
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateReminderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	owner := CurrentUser(r.Context())
	reminder, err := h.service.Create(r.Context(), owner.ID, req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reminder)
}

// List handles GET /reminders/?skip=&limit=
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	owner := CurrentUser(r.Context())

	reminders, err := h.service.List(r.Context(), owner.ID, page.Skip, page.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reminders)
}

// Upcoming handles GET /reminders/upcoming?limit=
func (h *ReminderHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r, service.DefaultUpcomingLimit, maxUpcomingLimit)
	owner := CurrentUser(r.Context())

	reminders, err := h.service.ListUpcoming(r.Context(), owner.ID, page.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reminders)
}

// Get handles GET /reminders/{reminder_id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "reminder_id", chi.URLParam(r, "reminder_id"))
	if !ok {
		return
	}
	owner := CurrentUser(r.Context())

	reminder, err := h.service.Get(r.Context(), owner.ID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reminder)
}

// Update handles PUT /reminders/{reminder_id}
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "reminder_id", chi.URLParam(r, "reminder_id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateReminderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	owner := CurrentUser(r.Context())
	reminder, err := h.service.Update(r.Context(), owner.ID, id, req.toPatch())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reminder)
}

// Delete handles DELETE /reminders/{reminder_id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "reminder_id", chi.URLParam(r, "reminder_id"))
	if !ok {
		return
	}
	owner := CurrentUser(r.Context())

	if err := h.service.Delete(r.Context(), owner.ID, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Reminder deleted successfully")
}

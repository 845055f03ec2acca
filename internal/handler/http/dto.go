package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utafrali/ReminderGo/internal/domain"
)

// Timestamp accepts RFC 3339 and naive ISO 8601 date-times. Naive values
// are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date-time %q", raw)
}

// --- Request DTOs ---

// RegisterRequest is the JSON body of POST /users/.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// LoginForm is the form body of POST /token.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateReminderRequest is the JSON body of POST /reminders/.
type CreateReminderRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  *string    `json:"description"`
	DueDate      *Timestamp `json:"due_date" validate:"required"`
	ReminderType string     `json:"reminder_type" validate:"required,oneof=one_time daily weekly monthly"`
}

func (req CreateReminderRequest) toInput() domain.ReminderInput {
	return domain.ReminderInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate.Time,
		ReminderType: domain.ReminderType(req.ReminderType),
	}
}

// UpdateReminderRequest is the JSON body of PUT /reminders/{id}. Absent
// fields are left unchanged; description may be cleared with null.
type UpdateReminderRequest struct {
	Title        *string               `json:"title" validate:"omitnil,min=1,max=255"`
	Description  domain.NullableString `json:"description"`
	DueDate      *Timestamp            `json:"due_date"`
	ReminderType *string               `json:"reminder_type" validate:"omitnil,oneof=one_time daily weekly monthly"`
	IsCompleted  *bool                 `json:"is_completed"`
}

func (req UpdateReminderRequest) toPatch() domain.ReminderPatch {
	patch := domain.ReminderPatch{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if req.DueDate != nil {
		due := req.DueDate.Time
		patch.DueDate = &due
	}
	if req.ReminderType != nil {
		rt := domain.ReminderType(*req.ReminderType)
		patch.ReminderType = &rt
	}
	return patch
}

// --- Response DTOs ---

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}

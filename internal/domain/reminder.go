package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Reminder belongs to exactly one user. UserID is set at creation and never
// changes.
type Reminder struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	DueDate      time.Time    `json:"due_date"`
	ReminderType ReminderType `json:"reminder_type"`
	IsCompleted  bool         `json:"is_completed"`
	CreatedAt    time.Time    `json:"created_at"`
	UserID       int64        `json:"user_id"`
}

// ReminderInput carries the caller-supplied fields of a new reminder.
type ReminderInput struct {
	Title        string
	Description  *string
	DueDate      time.Time
	ReminderType ReminderType
}

// ReminderPatch is a partial update. Nil pointers and unset nullable fields
// leave the stored value untouched.
type ReminderPatch struct {
	Title        *string
	Description  NullableString
	DueDate      *time.Time
	ReminderType *ReminderType
	IsCompleted  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ReminderPatch) IsEmpty() bool {
	return p.Title == nil &&
		!p.Description.Set &&
		p.DueDate == nil &&
		p.ReminderType == nil &&
		p.IsCompleted == nil
}

// NullableString distinguishes an absent JSON field from an explicit null.
// Set is true when the field appeared in the document; Valid is false when
// its value was null.
type NullableString struct {
	Set   bool
	Valid bool
	Value string
}

// NewNullableString returns a set, non-null value.
func NewNullableString(s string) NullableString {
	return NullableString{Set: true, Valid: true, Value: s}
}

// Null returns a set, null value.
func Null() NullableString {
	return NullableString{Set: true}
}

// Ptr returns nil for null or unset values.
func (n NullableString) Ptr() *string {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// UnmarshalJSON is only called when the field is present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		n.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON writes null for unset or null values.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

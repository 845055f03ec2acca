package domain

import "fmt"

// ReminderType is the recurrence of a reminder.
type ReminderType string

const (
	ReminderOneTime ReminderType = "one_time"
	ReminderDaily   ReminderType = "daily"
	ReminderWeekly  ReminderType = "weekly"
	ReminderMonthly ReminderType = "monthly"
)

// ReminderTypes returns every valid reminder type.
func ReminderTypes() []ReminderType {
	return []ReminderType{ReminderOneTime, ReminderDaily, ReminderWeekly, ReminderMonthly}
}

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderOneTime, ReminderDaily, ReminderWeekly, ReminderMonthly:
		return true
	}
	return false
}

// ParseReminderType converts s to a ReminderType. Values are case-sensitive.
func ParseReminderType(s string) (ReminderType, error) {
	t := ReminderType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown reminder type %q", s)
	}
	return t, nil
}

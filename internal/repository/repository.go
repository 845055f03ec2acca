package repository

import (
	"context"

	"github.com/utafrali/ReminderGo/internal/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts user and sets its ID. A duplicate email fails with
	// apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Delete removes a user and, through the foreign key, their reminders.
	Delete(ctx context.Context, id int64) error
}

// ReminderRepository stores reminders. Every method except Create takes the
// owner's user ID and filters on it in the query itself; a reminder owned by
// someone else is indistinguishable from one that does not exist.
type ReminderRepository interface {
	// Create inserts reminder and sets its ID.
	Create(ctx context.Context, reminder *domain.Reminder) error

	// Get returns the owner's reminder with the given ID.
	Get(ctx context.Context, ownerID, id int64) (*domain.Reminder, error)

	// List returns a page of the owner's reminders ordered by ID.
	List(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Reminder, error)

	// ListUpcoming returns the owner's incomplete reminders, soonest first.
	ListUpcoming(ctx context.Context, ownerID int64, limit int) ([]domain.Reminder, error)

	// Update applies the fields present in patch and returns the result.
	Update(ctx context.Context, ownerID, id int64, patch domain.ReminderPatch) (*domain.Reminder, error)

	// Delete removes the owner's reminder.
	Delete(ctx context.Context, ownerID, id int64) error
}

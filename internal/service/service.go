package service

import (
	"context"

	"github.com/utafrali/ReminderGo/internal/domain"
)

// OwnedStore is the contract of every storage-backed resource that belongs to
// a single user. Implementations must scope each operation to ownerID; a
// record owned by someone else behaves exactly like a missing one.
type OwnedStore[T, C, U any] interface {
	Create(ctx context.Context, ownerID int64, in C) (*T, error)
	Get(ctx context.Context, ownerID, id int64) (*T, error)
	List(ctx context.Context, ownerID int64, offset, limit int) ([]T, error)
	Update(ctx context.Context, ownerID, id int64, patch U) (*T, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// EventPublisher emits domain events after a change has been committed.
type EventPublisher interface {
	UserRegistered(ctx context.Context, user *domain.User) error
	UserDeleted(ctx context.Context, userID int64) error
	ReminderCreated(ctx context.Context, reminder *domain.Reminder) error
	ReminderUpdated(ctx context.Context, reminder *domain.Reminder) error
	ReminderDeleted(ctx context.Context, ownerID, reminderID int64) error
}

// UpcomingCache caches ListUpcoming results per owner. Get reports the
// generation it looked under; Set stores under that generation, so results
// read before an Invalidate are never served after it.
type UpcomingCache interface {
	Get(ctx context.Context, ownerID int64, limit int) (reminders []domain.Reminder, generation int64, hit bool, err error)
	Set(ctx context.Context, ownerID int64, limit int, generation int64, reminders []domain.Reminder) error
	Invalidate(ctx context.Context, ownerID int64) error
}

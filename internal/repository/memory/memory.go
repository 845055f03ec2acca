package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/utafrali/ReminderGo/internal/domain"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

// Store keeps users and reminders in process memory. It honors the same
// contracts as the PostgreSQL repositories, including unique emails and
// cascading deletes, and is meant for tests and local runs.
type Store struct {
	mu             sync.RWMutex
	users          map[int64]domain.User
	reminders      map[int64]domain.Reminder
	nextUserID     int64
	nextReminderID int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		reminders: make(map[int64]domain.Reminder),
	}
}

// Users returns the store's user repository.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Reminders returns the store's reminder repository.
func (s *Store) Reminders() *ReminderRepository {
	return &ReminderRepository{s: s}
}

// UserRepository implements repository.UserRepository over a Store.
type UserRepository struct {
	s *Store
}

// Create inserts u and assigns its ID.
func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	r.s.users[u.ID] = *u
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("User")
	}
	return &u, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("User")
}

// Delete removes a user and their reminders.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return apperrors.NotFound("User")
	}
	delete(r.s.users, id)
	for rid, rem := range r.s.reminders {
		if rem.UserID == id {
			delete(r.s.reminders, rid)
		}
	}
	return nil
}

// ReminderRepository implements repository.ReminderRepository over a Store.
type ReminderRepository struct {
	s *Store
}

// Create inserts rem and assigns its ID.
func (r *ReminderRepository) Create(_ context.Context, rem *domain.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[rem.UserID]; !ok {
		return apperrors.InvalidInput("reminder owner does not exist")
	}

	r.s.nextReminderID++
	rem.ID = r.s.nextReminderID
	r.s.reminders[rem.ID] = *rem
	return nil
}

// Get retrieves one of the owner's reminders.
func (r *ReminderRepository) Get(_ context.Context, ownerID, id int64) (*domain.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rem, ok := r.s.reminders[id]
	if !ok || rem.UserID != ownerID {
		return nil, apperrors.NotFound("Reminder")
	}
	return &rem, nil
}

// List returns a page of the owner's reminders in ID order.
func (r *ReminderRepository) List(_ context.Context, ownerID int64, offset, limit int) ([]domain.Reminder, error) {
	owned := r.owned(ownerID, func(domain.Reminder) bool { return true })
	slices.SortFunc(owned, func(a, b domain.Reminder) int { return cmp.Compare(a.ID, b.ID) })
	return page(owned, offset, limit), nil
}

// ListUpcoming returns the owner's incomplete reminders, soonest first.
func (r *ReminderRepository) ListUpcoming(_ context.Context, ownerID int64, limit int) ([]domain.Reminder, error) {
	owned := r.owned(ownerID, func(rem domain.Reminder) bool { return !rem.IsCompleted })
	slices.SortFunc(owned, func(a, b domain.Reminder) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return page(owned, 0, limit), nil
}

// Update applies the present fields of patch.
func (r *ReminderRepository) Update(_ context.Context, ownerID, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rem, ok := r.s.reminders[id]
	if !ok || rem.UserID != ownerID {
		return nil, apperrors.NotFound("Reminder")
	}

	if patch.Title != nil {
		rem.Title = *patch.Title
	}
	if patch.Description.Set {
		rem.Description = patch.Description.Ptr()
	}
	if patch.DueDate != nil {
		rem.DueDate = *patch.DueDate
	}
	if patch.ReminderType != nil {
		rem.ReminderType = *patch.ReminderType
	}
	if patch.IsCompleted != nil {
		rem.IsCompleted = *patch.IsCompleted
	}

	r.s.reminders[id] = rem
	return &rem, nil
}

// Delete removes one of the owner's reminders.
func (r *ReminderRepository) Delete(_ context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rem, ok := r.s.reminders[id]
	if !ok || rem.UserID != ownerID {
		return apperrors.NotFound("Reminder")
	}
	delete(r.s.reminders, id)
	return nil
}

func (r *ReminderRepository) owned(ownerID int64, keep func(domain.Reminder) bool) []domain.Reminder {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Reminder, 0)
	for _, rem := range r.s.reminders {
		if rem.UserID == ownerID && keep(rem) {
			out = append(out, rem)
		}
	}
	return out
}

func page(reminders []domain.Reminder, offset, limit int) []domain.Reminder {
	if offset >= len(reminders) {
		return []domain.Reminder{}
	}
	end := len(reminders)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return reminders[offset:end]
}

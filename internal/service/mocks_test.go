package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ReminderGo/internal/auth"
	"github.com/utafrali/ReminderGo/internal/domain"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Reminder Repository ---

type mockReminderRepository struct {
	mock.Mock
}

func (m *mockReminderRepository) Create(ctx context.Context, r *domain.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReminderRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Reminder, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *mockReminderRepository) List(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Reminder, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}

func (m *mockReminderRepository) ListUpcoming(ctx context.Context, ownerID int64, limit int) ([]domain.Reminder, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}

func (m *mockReminderRepository) Update(ctx context.Context, ownerID, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	args := m.Called(ctx, ownerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *mockReminderRepository) Delete(ctx context.Context, ownerID, id int64) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) UserRegistered(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockEvents) UserDeleted(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockEvents) ReminderCreated(ctx context.Context, r *domain.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) ReminderUpdated(ctx context.Context, r *domain.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) ReminderDeleted(ctx context.Context, ownerID, reminderID int64) error {
	return m.Called(ctx, ownerID, reminderID).Error(0)
}

// --- Mock Upcoming Cache ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, ownerID int64, limit int) ([]domain.Reminder, int64, bool, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Bool(2), args.Error(3)
	}
	return args.Get(0).([]domain.Reminder), args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *mockCache) Set(ctx context.Context, ownerID int64, limit int, generation int64, reminders []domain.Reminder) error {
	return m.Called(ctx, ownerID, limit, generation, reminders).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, ownerID int64) error {
	return m.Called(ctx, ownerID).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestTokens(t *testing.T, clock *fakeClock) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:    "test-secret-key-for-testing-only-1234",
		Algorithm: "HS256",
		Lifetime:  30 * time.Minute,
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return tm
}

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	digest, err := newTestHasher().Hash(password)
	require.NoError(t, err)
	return digest
}

func strPtr(s string) *string {
	return &s
}

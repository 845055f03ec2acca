package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReminderGo/internal/cache"
	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/internal/event"
	"github.com/utafrali/ReminderGo/internal/repository"
	"github.com/utafrali/ReminderGo/internal/repository/memory"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMemoryReminderService(t *testing.T) (*ReminderService, int64, int64) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	a := &domain.User{Email: "a@x.com", HashedPassword: "h", IsActive: true}
	b := &domain.User{Email: "b@x.com", HashedPassword: "h", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, a))
	require.NoError(t, store.Users().Create(ctx, b))

	svc := NewReminderService(store.Reminders(), event.Nop{}, newTestLogger(),
		WithClock(func() time.Time { return testNow }))
	return svc, a.ID, b.ID
}

func sampleInput(title string, due time.Time) domain.ReminderInput {
	return domain.ReminderInput{
		Title:        title,
		DueDate:      due,
		ReminderType: domain.ReminderOneTime,
	}
}

func TestReminderService_Create(t *testing.T) {
	svc, a, _ := newMemoryReminderService(t)

	r, err := svc.Create(context.Background(), a, domain.ReminderInput{
		Title:        "Pay rent",
		Description:  strPtr("before the 5th"),
		DueDate:      testNow.Add(48 * time.Hour),
		ReminderType: domain.ReminderMonthly,
	})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, a, r.UserID)
	assert.False(t, r.IsCompleted)
	assert.Equal(t, testNow, r.CreatedAt)
	assert.Equal(t, "before the 5th", *r.Description)
}

func TestReminderService_OwnershipIsolation(t *testing.T) {
	svc, a, b := newMemoryReminderService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, a, sampleInput("A's reminder", testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, b, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Update(ctx, b, r.ID, domain.ReminderPatch{Title: strPtr("stolen")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = svc.Delete(ctx, b, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err := svc.List(ctx, b, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := svc.Get(ctx, a, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "A's reminder", got.Title)
}

func TestReminderService_PartialUpdate(t *testing.T) {
	svc, a, _ := newMemoryReminderService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, a, domain.ReminderInput{
		Title:        "Dentist",
		Description:  strPtr("bring card"),
		DueDate:      testNow.Add(24 * time.Hour),
		ReminderType: domain.ReminderOneTime,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a, created.ID, domain.ReminderPatch{Title: strPtr("Dentist (moved)")})
	require.NoError(t, err)
	assert.Equal(t, "Dentist (moved)", updated.Title)
	assert.Equal(t, "bring card", *updated.Description)
	assert.True(t, created.DueDate.Equal(updated.DueDate))
	assert.Equal(t, created.ReminderType, updated.ReminderType)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	updated, err = svc.Update(ctx, a, created.ID, domain.ReminderPatch{Description: domain.Null()})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "Dentist (moved)", updated.Title)

	done := true
	updated, err = svc.Update(ctx, a, created.ID, domain.ReminderPatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
}

func TestReminderService_EmptyPatchReturnsCurrent(t *testing.T) {
	repo := new(mockReminderRepository)
	events := new(mockEvents)
	cache := new(mockCache)
	svc := NewReminderService(repo, events, newTestLogger(), WithUpcomingCache(cache))

	current := &domain.Reminder{ID: 3, UserID: 1, Title: "t"}
	repo.On("Update", mock.Anything, int64(1), int64(3), domain.ReminderPatch{}).Return(current, nil)

	got, err := svc.Update(context.Background(), 1, 3, domain.ReminderPatch{})
	require.NoError(t, err)
	assert.Equal(t, current, got)
	events.AssertNotCalled(t, "ReminderUpdated", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestReminderService_ListPagination(t *testing.T) {
	svc, a, _ := newMemoryReminderService(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, a, sampleInput(title, testNow.Add(time.Hour)))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, a, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Title)

	all, err := svc.List(ctx, a, -5, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	past, err := svc.List(ctx, a, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestReminderService_ListUpcoming(t *testing.T) {
	svc, a, _ := newMemoryReminderService(t)
	ctx := context.Background()

	later, err := svc.Create(ctx, a, sampleInput("later", testNow.Add(72*time.Hour)))
	require.NoError(t, err)
	sooner, err := svc.Create(ctx, a, sampleInput("sooner", testNow.Add(time.Hour)))
	require.NoError(t, err)
	done, err := svc.Create(ctx, a, sampleInput("done", testNow.Add(30*time.Minute)))
	require.NoError(t, err)

	completed := true
	_, err = svc.Update(ctx, a, done.ID, domain.ReminderPatch{IsCompleted: &completed})
	require.NoError(t, err)

	upcoming, err := svc.ListUpcoming(ctx, a, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, sooner.ID, upcoming[0].ID)
	assert.Equal(t, later.ID, upcoming[1].ID)
}

func TestReminderService_ListUpcoming_CacheHit(t *testing.T) {
	repo := new(mockReminderRepository)
	cache := new(mockCache)
	svc := NewReminderService(repo, new(mockEvents), newTestLogger(), WithUpcomingCache(cache))

	cached := []domain.Reminder{{ID: 1, UserID: 7, Title: "cached"}}
	cache.On("Get", mock.Anything, int64(7), DefaultUpcomingLimit).Return(cached, int64(0), true, nil)

	got, err := svc.ListUpcoming(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "ListUpcoming", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_ListUpcoming_CacheMissFillsCache(t *testing.T) {
	repo := new(mockReminderRepository)
	cache := new(mockCache)
	svc := NewReminderService(repo, new(mockEvents), newTestLogger(), WithUpcomingCache(cache))

	fromDB := []domain.Reminder{{ID: 2, UserID: 7, Title: "db"}}
	cache.On("Get", mock.Anything, int64(7), 5).Return(nil, int64(3), false, nil)
	repo.On("ListUpcoming", mock.Anything, int64(7), 5).Return(fromDB, nil)
	cache.On("Set", mock.Anything, int64(7), 5, int64(3), fromDB).Return(nil)

	got, err := svc.ListUpcoming(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestReminderService_ListUpcoming_CacheErrorFallsBack(t *testing.T) {
	repo := new(mockReminderRepository)
	cache := new(mockCache)
	svc := NewReminderService(repo, new(mockEvents), newTestLogger(), WithUpcomingCache(cache))

	fromDB := []domain.Reminder{{ID: 2, UserID: 7}}
	cache.On("Get", mock.Anything, int64(7), 5).Return(nil, int64(0), false, errors.New("circuit breaker is open"))
	repo.On("ListUpcoming", mock.Anything, int64(7), 5).Return(fromDB, nil)

	got, err := svc.ListUpcoming(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_ListUpcoming_CacheWriteErrorIgnored(t *testing.T) {
	repo := new(mockReminderRepository)
	cache := new(mockCache)
	svc := NewReminderService(repo, new(mockEvents), newTestLogger(), WithUpcomingCache(cache))

	fromDB := []domain.Reminder{{ID: 2, UserID: 7}}
	cache.On("Get", mock.Anything, int64(7), 5).Return(nil, int64(0), false, nil)
	repo.On("ListUpcoming", mock.Anything, int64(7), 5).Return(fromDB, nil)
	cache.On("Set", mock.Anything, int64(7), 5, int64(0), fromDB).Return(errors.New("circuit breaker is open"))

	got, err := svc.ListUpcoming(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	cache.AssertExpectations(t)
}

func TestReminderService_ListUpcoming_RepoError(t *testing.T) {
	repo := new(mockReminderRepository)
	svc := NewReminderService(repo, new(mockEvents), newTestLogger())

	repo.On("ListUpcoming", mock.Anything, int64(7), 5).Return(nil, errors.New("db down"))

	_, err := svc.ListUpcoming(context.Background(), 7, 5)
	assert.ErrorContains(t, err, "list upcoming reminders")
}

func TestReminderService_WritesInvalidateAndPublish(t *testing.T) {
	repo := new(mockReminderRepository)
	events := new(mockEvents)
	cache := new(mockCache)
	svc := NewReminderService(repo, events, newTestLogger(),
		WithUpcomingCache(cache), WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Reminder) bool {
		return r.UserID == 7 && !r.IsCompleted && r.CreatedAt.Equal(testNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Reminder).ID = 11
	}).Return(nil)
	cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)
	events.On("ReminderCreated", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(errors.New("broker down"))

	r, err := svc.Create(ctx, 7, sampleInput("t", testNow.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(11), r.ID)

	title := "t2"
	patch := domain.ReminderPatch{Title: &title}
	repo.On("Update", mock.Anything, int64(7), int64(11), patch).Return(&domain.Reminder{ID: 11, UserID: 7, Title: title}, nil)
	events.On("ReminderUpdated", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

	_, err = svc.Update(ctx, 7, 11, patch)
	require.NoError(t, err)

	repo.On("Delete", mock.Anything, int64(7), int64(11)).Return(nil)
	events.On("ReminderDeleted", mock.Anything, int64(7), int64(11)).Return(nil)

	require.NoError(t, svc.Delete(ctx, 7, 11))

	cache.AssertNumberOfCalls(t, "Invalidate", 3)
	events.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestReminderService_FailedWriteHasNoSideEffects(t *testing.T) {
	repo := new(mockReminderRepository)
	events := new(mockEvents)
	cache := new(mockCache)
	svc := NewReminderService(repo, events, newTestLogger(), WithUpcomingCache(cache))

	repo.On("Delete", mock.Anything, int64(7), int64(99)).Return(apperrors.NotFound("Reminder"))

	err := svc.Delete(context.Background(), 7, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "ReminderDeleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_DeletingUserRemovesReminders(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	users := NewUserService(store.Users(), newTestHasher(), event.Nop{}, nil, newTestLogger())
	reminders := NewReminderService(store.Reminders(), event.Nop{}, newTestLogger())

	u, err := users.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	r, err := reminders.Create(ctx, u.ID, sampleInput("t", testNow))
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, u.ID))

	_, err = reminders.Get(ctx, u.ID, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// interleavingRepo runs beforeReturn after loading upcoming reminders and
// before handing them back, simulating a write that lands mid-read.
type interleavingRepo struct {
	repository.ReminderRepository
	beforeReturn func()
}

func (r *interleavingRepo) ListUpcoming(ctx context.Context, ownerID int64, limit int) ([]domain.Reminder, error) {
	reminders, err := r.ReminderRepository.ListUpcoming(ctx, ownerID, limit)
	if r.beforeReturn != nil {
		hook := r.beforeReturn
		r.beforeReturn = nil
		hook()
	}
	return reminders, err
}

func TestReminderService_ListUpcoming_WriteDuringFillNotServed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	upcoming := cache.NewUpcomingCache(client, time.Minute, cache.DefaultBreakerConfig(), nil, newTestLogger())

	store := memory.New()
	ctx := context.Background()
	owner := &domain.User{Email: "a@x.com", HashedPassword: "h", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, owner))

	repo := &interleavingRepo{ReminderRepository: store.Reminders()}
	svc := NewReminderService(repo, event.Nop{}, newTestLogger(),
		WithUpcomingCache(upcoming), WithClock(func() time.Time { return testNow }))

	r, err := svc.Create(ctx, owner.ID, sampleInput("Buy milk", testNow.Add(time.Hour)))
	require.NoError(t, err)

	done := true
	repo.beforeReturn = func() {
		_, err := svc.Update(ctx, owner.ID, r.ID, domain.ReminderPatch{IsCompleted: &done})
		require.NoError(t, err)
	}

	// The first read loaded the list before the update committed.
	stale, err := svc.ListUpcoming(ctx, owner.ID, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	got, err := svc.ListUpcoming(ctx, owner.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, got, "completed reminder must not come back from the cache")
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/internal/repository"
	"github.com/utafrali/ReminderGo/pkg/pagination"
)

// DefaultUpcomingLimit is the page size of ListUpcoming when none is given.
const DefaultUpcomingLimit = 10

var _ OwnedStore[domain.Reminder, domain.ReminderInput, domain.ReminderPatch] = (*ReminderService)(nil)

// ReminderService implements the ownership-scoped reminder store.
type ReminderService struct {
	repo   repository.ReminderRepository
	events EventPublisher
	cache  UpcomingCache
	now    func() time.Time
	logger *slog.Logger
}

// ReminderOption customizes a ReminderService.
type ReminderOption func(*ReminderService)

// WithUpcomingCache serves ListUpcoming through c.
func WithUpcomingCache(c UpcomingCache) ReminderOption {
	return func(s *ReminderService) {
		s.cache = c
	}
}

// WithClock replaces time.Now for created_at.
func WithClock(now func() time.Time) ReminderOption {
	return func(s *ReminderService) {
		s.now = now
	}
}

// NewReminderService creates a new reminder service.
func NewReminderService(repo repository.ReminderRepository, events EventPublisher, logger *slog.Logger, opts ...ReminderOption) *ReminderService {
	s := &ReminderService{
		repo:   repo,
		events: events,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new incomplete reminder owned by ownerID.
func (s *ReminderService) Create(ctx context.Context, ownerID int64, in domain.ReminderInput) (*domain.Reminder, error) {
	r := &domain.Reminder{
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate,
		ReminderType: in.ReminderType,
		IsCompleted:  false,
		CreatedAt:    s.now().UTC(),
		UserID:       ownerID,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	s.afterWrite(ctx, ownerID)
	if err := s.events.ReminderCreated(ctx, r); err != nil {
		s.logPublishError(ctx, "reminder.created", r.ID, err)
	}

	s.logger.InfoContext(ctx, "reminder created",
		slog.Int64("reminder_id", r.ID),
		slog.String("reminder_type", string(r.ReminderType)),
	)

	return r, nil
}

// Get returns the owner's reminder or ErrNotFound.
func (s *ReminderService) Get(ctx context.Context, ownerID, id int64) (*domain.Reminder, error) {
	r, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

// List returns a page of the owner's reminders. A non-positive limit means
// the default page size.
func (s *ReminderService) List(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Reminder, error) {
	offset = max(offset, 0)
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	reminders, err := s.repo.List(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ListUpcoming returns the owner's incomplete reminders, earliest due first.
// Cache failures fall back to the database without refilling the cache.
func (s *ReminderService) ListUpcoming(ctx context.Context, ownerID int64, limit int) ([]domain.Reminder, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		reminders, gen, hit, err := s.cache.Get(ctx, ownerID, limit)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "upcoming cache read failed",
				slog.String("error", err.Error()),
			)
		case hit:
			return reminders, nil
		default:
			generation, cacheable = gen, true
		}
	}

	reminders, err := s.repo.ListUpcoming(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming reminders: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, ownerID, limit, generation, reminders); err != nil {
			s.logger.WarnContext(ctx, "upcoming cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return reminders, nil
}

// Update applies only the fields present in patch.
func (s *ReminderService) Update(ctx context.Context, ownerID, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	r, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	if patch.IsEmpty() {
		return r, nil
	}

	s.afterWrite(ctx, ownerID)
	if err := s.events.ReminderUpdated(ctx, r); err != nil {
		s.logPublishError(ctx, "reminder.updated", r.ID, err)
	}

	s.logger.InfoContext(ctx, "reminder updated", slog.Int64("reminder_id", r.ID))

	return r, nil
}

// Delete removes the owner's reminder or fails with ErrNotFound.
func (s *ReminderService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}

	s.afterWrite(ctx, ownerID)
	if err := s.events.ReminderDeleted(ctx, ownerID, id); err != nil {
		s.logPublishError(ctx, "reminder.deleted", id, err)
	}

	s.logger.InfoContext(ctx, "reminder deleted", slog.Int64("reminder_id", id))

	return nil
}

func (s *ReminderService) afterWrite(ctx context.Context, ownerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate upcoming cache",
			slog.Int64("user_id", ownerID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReminderService) logPublishError(ctx context.Context, eventType string, reminderID int64, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.Int64("reminder_id", reminderID),
		slog.String("error", err.Error()),
	)
}

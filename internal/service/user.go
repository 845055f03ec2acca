package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReminderGo/internal/auth"
	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/internal/repository"
)

// UserService implements registration and account management.
type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	events EventPublisher
	cache  UpcomingCache
	logger *slog.Logger
}

// NewUserService creates a new user service. cache may be nil.
func NewUserService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	events EventPublisher,
	cache UpcomingCache,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		events: events,
		cache:  cache,
		logger: logger,
	}
}

// Register creates an active account. A taken email fails with
// ErrAlreadyExists from the store's unique constraint.
func (s *UserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:          email,
		HashedPassword: digest,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.UserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Delete removes the account and all of its reminders. Tokens already
// issued for it stop resolving immediately.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate upcoming cache",
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.events.UserDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))

	return nil
}

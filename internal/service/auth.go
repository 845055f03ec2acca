package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReminderGo/internal/auth"
	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/internal/repository"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

// dummyPassword is hashed once at startup. Its digest is compared against
// when a login names an unknown email.
const dummyPassword = "reminder-api-dummy-password"

// AuthService turns credentials into tokens and tokens back into users.
type AuthService struct {
	users       repository.UserRepository
	hasher      auth.PasswordHasher
	tokens      *auth.TokenManager
	dummyDigest string
	logger      *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		dummyDigest: dummy,
		logger:      logger,
	}, nil
}

// Authenticate checks email and password and issues a bearer token. Unknown
// emails, wrong passwords and inactive accounts all fail with the same
// InvalidCredentials error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get user for login: %w", err)
		}
		// Spend the same time as a real comparison.
		s.hasher.Verify(password, s.dummyDigest)
		return nil, apperrors.InvalidCredentials()
	}

	if !s.hasher.Verify(password, user.HashedPassword) || !user.IsActive {
		return nil, apperrors.InvalidCredentials()
	}

	token, _, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
	)

	return &domain.AccessToken{
		AccessToken: token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   int64(s.tokens.Lifetime().Seconds()),
	}, nil
}

// ResolveIdentity verifies a bearer token and loads the user it names. A
// valid token whose user has since been deleted is rejected.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", slog.String("error", err.Error()))
		return nil, apperrors.InvalidCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("get user for token: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.InvalidCredentials()
	}

	return user, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/pkg/database"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Email uniqueness is left to the users_email_key
// constraint so concurrent registrations cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (email, hashed_password, is_active)
		VALUES ($1, $2, $3)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, u.Email, u.HashedPassword, u.IsActive).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, is_active
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, "GetUserByID", query, id)
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, is_active
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, "GetUserByEmail", query, email)
}

// Delete removes a user. Reminders go with it via ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("User")
	}

	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, operation, query string, args ...any) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, operation, query)
	defer func() { end(ignoreNotFound(err)) }()

	var u domain.User
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReminderGo/internal/domain"
	"github.com/utafrali/ReminderGo/pkg/database"
	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

const reminderColumns = "id, title, description, due_date, reminder_type, is_completed, created_at, user_id"

// ReminderRepository implements repository.ReminderRepository using
// PostgreSQL. Every statement that reads or modifies an existing row carries
// user_id in its WHERE clause.
type ReminderRepository struct {
	db database.DBTX
}

// NewReminderRepository creates a new PostgreSQL-backed reminder repository.
func NewReminderRepository(db database.DBTX) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a new reminder and sets its ID.
func (r *ReminderRepository) Create(ctx context.Context, rem *domain.Reminder) (err error) {
	query := `
		INSERT INTO reminders (title, description, due_date, reminder_type, is_completed, created_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateReminder", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		rem.Title,
		rem.Description,
		rem.DueDate,
		string(rem.ReminderType),
		rem.IsCompleted,
		rem.CreatedAt,
		rem.UserID,
	).Scan(&rem.ID)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}

	return nil
}

// Get retrieves one of the owner's reminders.
func (r *ReminderRepository) Get(ctx context.Context, ownerID, id int64) (_ *domain.Reminder, err error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetReminder", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanReminder(r.db.QueryRow(ctx, query, id, ownerID))
}

// List returns a page of the owner's reminders in ID order.
func (r *ReminderRepository) List(ctx context.Context, ownerID int64, offset, limit int) (_ []domain.Reminder, err error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListReminders", query)
	defer func() { end(err) }()

	return r.queryReminders(ctx, query, ownerID, limit, offset)
}

// ListUpcoming returns the owner's incomplete reminders ordered by due date.
func (r *ReminderRepository) ListUpcoming(ctx context.Context, ownerID int64, limit int) (_ []domain.Reminder, err error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1 AND is_completed = FALSE
		ORDER BY due_date ASC, id ASC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListUpcomingReminders", query)
	defer func() { end(err) }()

	return r.queryReminders(ctx, query, ownerID, limit)
}

// Update writes only the columns present in patch in a single statement.
// An empty patch reads the current row instead.
func (r *ReminderRepository) Update(ctx context.Context, ownerID, id int64, patch domain.ReminderPatch) (_ *domain.Reminder, err error) {
	if patch.IsEmpty() {
		return r.Get(ctx, ownerID, id)
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description.Set {
		set("description", patch.Description.Ptr())
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.ReminderType != nil {
		set("reminder_type", string(*patch.ReminderType))
	}
	if patch.IsCompleted != nil {
		set("is_completed", *patch.IsCompleted)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE reminders
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), reminderColumns)

	ctx, end := database.TraceQuery(ctx, "UpdateReminder", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanReminder(r.db.QueryRow(ctx, query, args...))
}

// Delete removes one of the owner's reminders.
func (r *ReminderRepository) Delete(ctx context.Context, ownerID, id int64) (err error) {
	query := `DELETE FROM reminders WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "DeleteReminder", query)
	defer func() { end(ignoreNotFound(err)) }()

	ct, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("Reminder")
	}

	return nil
}

func (r *ReminderRepository) queryReminders(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]domain.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}

	return reminders, nil
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var (
		rem          domain.Reminder
		reminderType string
	)
	err := row.Scan(
		&rem.ID,
		&rem.Title,
		&rem.Description,
		&rem.DueDate,
		&reminderType,
		&rem.IsCompleted,
		&rem.CreatedAt,
		&rem.UserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Reminder")
		}
		return nil, fmt.Errorf("scan reminder: %w", err)
	}
	rem.ReminderType = domain.ReminderType(reminderType)

	return &rem, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/pkg/database"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// ReminderRepository handles reminder data operations in PostgreSQL
type ReminderRepository struct {
	db *database.PostgresDB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *database.PostgresDB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create creates a new reminder
func (r *ReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	query := `
		INSERT INTO reminders (id, title, notes, due_at, recurrence, priority, status, channel, snoozed_until, delivered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		reminder.ID,
		reminder.Title,
		reminder.Notes,
		reminder.DueAt,
		reminder.Recurrence,
		reminder.Priority,
		reminder.Status,
		reminder.Channel,
		reminder.SnoozedUntil,
		reminder.DeliveredAt,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	return nil
}

// GetByID retrieves a reminder by ID
func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := `
		SELECT id, title, notes, due_at, recurrence, priority, status, channel, snoozed_until, delivered_at, created_at, updated_at
		FROM reminders
		WHERE id = $1
	`

	var reminder domain.Reminder
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&reminder.ID,
		&reminder.Title,
		&reminder.Notes,
		&reminder.DueAt,
		&reminder.Recurrence,
		&reminder.Priority,
		&reminder.Status,
		&reminder.Channel,
		&reminder.SnoozedUntil,
		&reminder.DeliveredAt,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reminder")
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return &reminder, nil
}

// Update updates a reminder
func (r *ReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	query := `
		UPDATE reminders
		SET title = $2, notes = $3, due_at = $4, recurrence = $5, priority = $6, status = $7,
		    channel = $8, snoozed_until = $9, delivered_at = $10, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		reminder.ID,
		reminder.Title,
		reminder.Notes,
		reminder.DueAt,
		reminder.Recurrence,
		reminder.Priority,
		reminder.Status,
		reminder.Channel,
		reminder.SnoozedUntil,
		reminder.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

// Delete deletes a reminder
func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reminders WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	return nil
}

// List retrieves reminders with filtering
func (r *ReminderRepository) List(ctx context.Context, filter *domain.ReminderFilter) (*domain.ReminderList, error) {
	baseQuery := `FROM reminders WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Priority != nil {
		baseQuery += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, *filter.Priority)
		argIndex++
	}
	if filter.DueFrom != nil {
		baseQuery += fmt.Sprintf(" AND due_at >= $%d", argIndex)
		args = append(args, *filter.DueFrom)
		argIndex++
	}
	if filter.DueTo != nil {
		baseQuery += fmt.Sprintf(" AND due_at < $%d", argIndex)
		args = append(args, *filter.DueTo)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count reminders: %w", err)
	}

	// Get reminders
	query := fmt.Sprintf(`
		SELECT id, title, notes, due_at, recurrence, priority, status, channel, snoozed_until, delivered_at, created_at, updated_at
		%s
		ORDER BY due_at ASC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		var reminder domain.Reminder
		if err := rows.Scan(
			&reminder.ID,
			&reminder.Title,
			&reminder.Notes,
			&reminder.DueAt,
			&reminder.Recurrence,
			&reminder.Priority,
			&reminder.Status,
			&reminder.Channel,
			&reminder.SnoozedUntil,
			&reminder.DeliveredAt,
			&reminder.CreatedAt,
			&reminder.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	return &domain.ReminderList{
		Reminders:  reminders,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(reminders)) < totalCount,
	}, nil
}

// ListDue retrieves reminders ready for delivery at the given time:
// pending ones past due, and snoozed ones whose snooze has expired.
// Urgent first, then oldest due.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	query := `
		SELECT id, title, notes, due_at, recurrence, priority, status, channel, snoozed_until, delivered_at, created_at, updated_at
		FROM reminders
		WHERE (status = 'pending' AND due_at <= $1)
		   OR (status = 'snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $1)
		ORDER BY
			CASE priority
				WHEN 'urgent' THEN 0
				WHEN 'high' THEN 1
				WHEN 'normal' THEN 2
				ELSE 3
			END,
			due_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		var reminder domain.Reminder
		if err := rows.Scan(
			&reminder.ID,
			&reminder.Title,
			&reminder.Notes,
			&reminder.DueAt,
			&reminder.Recurrence,
			&reminder.Priority,
			&reminder.Status,
			&reminder.Channel,
			&reminder.SnoozedUntil,
			&reminder.DeliveredAt,
			&reminder.CreatedAt,
			&reminder.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	return reminders, nil
}

// Stats returns reminder counts against the given day boundaries
func (r *ReminderRepository) Stats(ctx context.Context, now, dayStart, dayEnd time.Time) (*domain.ReminderStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'pending' AND due_at >= $2 AND due_at < $3),
		       COUNT(*) FILTER (WHERE status = 'pending' AND due_at < $1),
		       COUNT(*) FILTER (WHERE status = 'pending')
		FROM reminders
	`

	var stats domain.ReminderStats
	err := r.db.Pool.QueryRow(ctx, query, now, dayStart, dayEnd).Scan(&stats.DueToday, &stats.Overdue, &stats.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder stats: %w", err)
	}

	return &stats, nil
}

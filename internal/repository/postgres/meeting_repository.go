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

// MeetingRepository handles meeting data operations in PostgreSQL
type MeetingRepository struct {
	db *database.PostgresDB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *database.PostgresDB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, project_id, title, description, location, starts_at, ends_at, attendees, status, calendar_event_id, notes, summary, action_items, created_at, updated_at`

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := row.Scan(
		&meeting.ID,
		&meeting.ProjectID,
		&meeting.Title,
		&meeting.Description,
		&meeting.Location,
		&meeting.StartsAt,
		&meeting.EndsAt,
		&meeting.Attendees,
		&meeting.Status,
		&meeting.CalendarEventID,
		&meeting.Notes,
		&meeting.Summary,
		&meeting.ActionItems,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		INSERT INTO meetings (id, project_id, title, description, location, starts_at, ends_at, attendees, status, calendar_event_id, notes, summary, action_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		meeting.ID,
		meeting.ProjectID,
		meeting.Title,
		meeting.Description,
		meeting.Location,
		meeting.StartsAt,
		meeting.EndsAt,
		meeting.Attendees,
		meeting.Status,
		meeting.CalendarEventID,
		meeting.Notes,
		meeting.Summary,
		meeting.ActionItems,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// GetByID retrieves a meeting by ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	meeting, err := scanMeeting(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("meeting")
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	return meeting, nil
}

// GetByCalendarEventID retrieves a meeting by its Google Calendar event ID
func (r *MeetingRepository) GetByCalendarEventID(ctx context.Context, eventID string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE calendar_event_id = $1`

	meeting, err := scanMeeting(r.db.Pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("meeting")
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	return meeting, nil
}

// Update updates a meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		UPDATE meetings
		SET project_id = $2, title = $3, description = $4, location = $5, starts_at = $6, ends_at = $7,
		    attendees = $8, status = $9, calendar_event_id = $10, notes = $11, summary = $12, action_items = $13,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		meeting.ID,
		meeting.ProjectID,
		meeting.Title,
		meeting.Description,
		meeting.Location,
		meeting.StartsAt,
		meeting.EndsAt,
		meeting.Attendees,
		meeting.Status,
		meeting.CalendarEventID,
		meeting.Notes,
		meeting.Summary,
		meeting.ActionItems,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}

	return nil
}

// Delete deletes a meeting
func (r *MeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM meetings WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}

	return nil
}

// List retrieves meetings with filtering
func (r *MeetingRepository) List(ctx context.Context, filter *domain.MeetingFilter) (*domain.MeetingList, error) {
	baseQuery := `FROM meetings WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.ProjectID != nil {
		baseQuery += fmt.Sprintf(" AND project_id = $%d", argIndex)
		args = append(args, *filter.ProjectID)
		argIndex++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.From != nil {
		baseQuery += fmt.Sprintf(" AND starts_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		baseQuery += fmt.Sprintf(" AND starts_at < $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}

	// Get meetings
	query := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY starts_at DESC
		LIMIT $%d OFFSET $%d
	`, meetingColumns, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}

	return &domain.MeetingList{
		Meetings:   meetings,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(meetings)) < totalCount,
	}, nil
}

// ListUpcoming retrieves scheduled meetings starting within the window, soonest first
func (r *MeetingRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE status = 'scheduled' AND starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming meetings: %w", err)
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}

	return meetings, nil
}

// ListMissingCalendarEvent retrieves scheduled meetings not yet pushed to the calendar
func (r *MeetingRepository) ListMissingCalendarEvent(ctx context.Context, limit int) ([]domain.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE status = 'scheduled' AND calendar_event_id = ''
		ORDER BY starts_at ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced meetings: %w", err)
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}

	return meetings, nil
}

// CountInRange counts scheduled meetings starting within the window
func (r *MeetingRepository) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM meetings WHERE status = 'scheduled' AND starts_at >= $1 AND starts_at < $2`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	return count, nil
}

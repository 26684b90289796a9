package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/google"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

const (
	// TypeCalendarSync is the task type for the periodic calendar sync
	TypeCalendarSync = "calendar:sync"

	// calendarSyncWindow is how far ahead the pull looks
	calendarSyncWindow = 14 * 24 * time.Hour

	// calendarPushBatch bounds how many local meetings one sync pushes
	calendarPushBatch = 50
)

// CalendarAPI is the slice of the Google Calendar client the sync uses.
type CalendarAPI interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]google.Event, error)
	CreateEvent(ctx context.Context, calendarID string, ev google.Event) (*google.Event, error)
}

// MeetingCalendarStore is the slice of the meeting repository the sync
// reads and writes.
type MeetingCalendarStore interface {
	GetByCalendarEventID(ctx context.Context, eventID string) (*domain.Meeting, error)
	ListMissingCalendarEvent(ctx context.Context, limit int) ([]domain.Meeting, error)
	Create(ctx context.Context, meeting *domain.Meeting) error
	Update(ctx context.Context, meeting *domain.Meeting) error
}

// CalendarWorker keeps local meetings and Google Calendar aligned in
// both directions. Local meetings without an event get pushed; upcoming
// Google events without a meeting get pulled. Google wins on schedule
// drift for pulled meetings; notes and summaries stay local.
type CalendarWorker struct {
	logger     *zap.Logger
	calendar   CalendarAPI
	meetings   MeetingCalendarStore
	calendarID string
}

// NewCalendarWorker creates a new calendar worker
func NewCalendarWorker(
	logger *zap.Logger,
	calendar CalendarAPI,
	meetings MeetingCalendarStore,
	calendarID string,
) *CalendarWorker {
	return &CalendarWorker{
		logger:     logger,
		calendar:   calendar,
		meetings:   meetings,
		calendarID: calendarID,
	}
}

// RegisterHandlers registers the calendar sync handler
func (w *CalendarWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCalendarSync, w.HandleCalendarSync)
}

// HandleCalendarSync runs one push-then-pull pass. Per-item failures
// are logged and skipped; the next sync retries them.
func (w *CalendarWorker) HandleCalendarSync(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	pushed, err := w.push(ctx, now)
	if err != nil {
		return err
	}

	pulled, updated, err := w.pull(ctx, now)
	if err != nil {
		return err
	}

	if pushed > 0 || pulled > 0 || updated > 0 {
		w.logger.Info("calendar sync complete",
			zap.Int("pushed", pushed),
			zap.Int("pulled", pulled),
			zap.Int("updated", updated),
		)
	}

	return nil
}

// push creates Google events for scheduled meetings that have none yet
func (w *CalendarWorker) push(ctx context.Context, now time.Time) (int, error) {
	local, err := w.meetings.ListMissingCalendarEvent(ctx, calendarPushBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsynced meetings: %w", err)
	}

	pushed := 0
	for i := range local {
		meeting := &local[i]
		// A meeting that already started stays local
		if meeting.StartsAt.Before(now) {
			continue
		}

		created, err := w.calendar.CreateEvent(ctx, w.calendarID, google.Event{
			Summary:     meeting.Title,
			Description: meeting.Description,
			Location:    meeting.Location,
			Start:       meeting.StartsAt,
			End:         meeting.EndsAt,
			Attendees:   meeting.Attendees,
		})
		if err != nil {
			w.logger.Warn("failed to push meeting to calendar",
				zap.String("meetingId", meeting.ID.String()),
				zap.Error(err),
			)
			continue
		}

		meeting.CalendarEventID = created.ID
		meeting.UpdatedAt = now
		if err := w.meetings.Update(ctx, meeting); err != nil {
			w.logger.Warn("failed to record calendar event id",
				zap.String("meetingId", meeting.ID.String()),
				zap.Error(err),
			)
			continue
		}
		pushed++
	}

	return pushed, nil
}

// pull creates or realigns meetings for upcoming Google events
func (w *CalendarWorker) pull(ctx context.Context, now time.Time) (int, int, error) {
	events, err := w.calendar.ListEvents(ctx, w.calendarID, now, now.Add(calendarSyncWindow))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list calendar events: %w", err)
	}

	pulled, updated := 0, 0
	for _, ev := range events {
		if ev.ID == "" || ev.Start.IsZero() {
			continue
		}

		existing, err := w.meetings.GetByCalendarEventID(ctx, ev.ID)
		if err != nil && !apperrors.IsNotFound(err) {
			w.logger.Warn("failed to look up calendar event",
				zap.String("eventId", ev.ID),
				zap.Error(err),
			)
			continue
		}

		if existing == nil {
			meeting := meetingFromEvent(ev, now)
			if err := w.meetings.Create(ctx, meeting); err != nil {
				w.logger.Warn("failed to create meeting from event",
					zap.String("eventId", ev.ID),
					zap.Error(err),
				)
				continue
			}
			pulled++
			continue
		}

		if existing.Status != domain.MeetingStatusScheduled {
			continue
		}
		if !realign(existing, ev) {
			continue
		}
		existing.UpdatedAt = now
		if err := w.meetings.Update(ctx, existing); err != nil {
			w.logger.Warn("failed to realign meeting",
				zap.String("meetingId", existing.ID.String()),
				zap.Error(err),
			)
			continue
		}
		updated++
	}

	return pulled, updated, nil
}

// meetingFromEvent builds a local meeting for a pulled calendar event
func meetingFromEvent(ev google.Event, now time.Time) *domain.Meeting {
	title := ev.Summary
	if title == "" {
		title = "(untitled event)"
	}
	end := ev.End
	if end.IsZero() {
		end = ev.Start.Add(time.Hour)
	}

	return &domain.Meeting{
		ID:              uuid.New(),
		Title:           title,
		Description:     ev.Description,
		Location:        ev.Location,
		StartsAt:        ev.Start,
		EndsAt:          end,
		Attendees:       ev.Attendees,
		Status:          domain.MeetingStatusScheduled,
		CalendarEventID: ev.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// realign copies schedule drift from the event onto the meeting and
// reports whether anything changed
func realign(meeting *domain.Meeting, ev google.Event) bool {
	changed := false
	if ev.Summary != "" && meeting.Title != ev.Summary {
		meeting.Title = ev.Summary
		changed = true
	}
	if !meeting.StartsAt.Equal(ev.Start) {
		meeting.StartsAt = ev.Start
		changed = true
	}
	if !ev.End.IsZero() && !meeting.EndsAt.Equal(ev.End) {
		meeting.EndsAt = ev.End
		changed = true
	}
	if ev.Location != "" && meeting.Location != ev.Location {
		meeting.Location = ev.Location
		changed = true
	}
	return changed
}

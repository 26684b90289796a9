package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reminder represents a due-dated reminder with optional recurrence
type Reminder struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	Notes        string           `json:"notes,omitempty"`
	DueAt        time.Time        `json:"dueAt"`
	Recurrence   Recurrence       `json:"recurrence"`
	Priority     ReminderPriority `json:"priority"`
	Status       ReminderStatus   `json:"status"`
	Channel      ReminderChannel  `json:"channel"`
	SnoozedUntil *time.Time       `json:"snoozedUntil,omitempty"`
	DeliveredAt  *time.Time       `json:"deliveredAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// IsDue reports whether the reminder should be delivered at the given
// time. Snoozing defers a reminder past its due time.
func (r *Reminder) IsDue(now time.Time) bool {
	switch r.Status {
	case ReminderStatusPending:
		return !r.DueAt.After(now)
	case ReminderStatusSnoozed:
		return r.SnoozedUntil != nil && !r.SnoozedUntil.After(now)
	default:
		return false
	}
}

// NextOccurrence returns the recurrence step after the given time
func (rec Recurrence) NextOccurrence(after time.Time) time.Time {
	switch rec {
	case RecurrenceDaily:
		return after.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		return after.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return after.AddDate(0, 1, 0)
	default:
		return after
	}
}

// Reschedule advances a recurring reminder to its next due time after
// delivery. Advancement steps from the due time, not the delivery time,
// and skips occurrences already in the past so a long-overdue daily
// reminder fires once, not once per missed day. Returns false for
// one-shot reminders.
func (r *Reminder) Reschedule(now time.Time) bool {
	if r.Recurrence == RecurrenceNone {
		return false
	}

	next := r.Recurrence.NextOccurrence(r.DueAt)
	for !next.After(now) {
		next = r.Recurrence.NextOccurrence(next)
	}

	r.DueAt = next
	r.Status = ReminderStatusPending
	r.SnoozedUntil = nil
	r.DeliveredAt = nil
	return true
}

// ReminderInput represents input for creating a reminder
type ReminderInput struct {
	Title      string           `json:"title" validate:"required,min=1,max=200"`
	Notes      string           `json:"notes,omitempty"`
	DueAt      time.Time        `json:"dueAt" validate:"required"`
	Recurrence Recurrence       `json:"recurrence,omitempty"`
	Priority   ReminderPriority `json:"priority,omitempty"`
	Channel    ReminderChannel  `json:"channel,omitempty"`
}

// ReminderUpdateInput represents input for updating a reminder
type ReminderUpdateInput struct {
	Title      *string           `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Notes      *string           `json:"notes,omitempty"`
	DueAt      *time.Time        `json:"dueAt,omitempty"`
	Recurrence *Recurrence       `json:"recurrence,omitempty"`
	Priority   *ReminderPriority `json:"priority,omitempty"`
	Channel    *ReminderChannel  `json:"channel,omitempty"`
}

// ReminderFilter represents filter options for querying reminders
type ReminderFilter struct {
	Status   *ReminderStatus
	Priority *ReminderPriority
	DueFrom  *time.Time
	DueTo    *time.Time

	Limit  int
	Offset int
}

// ReminderList represents a paginated list of reminders
type ReminderList struct {
	Reminders  []Reminder `json:"reminders"`
	TotalCount int64      `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}

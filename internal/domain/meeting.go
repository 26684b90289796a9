package domain

import (
	"time"

	"github.com/google/uuid"
)

// Meeting represents a calendar meeting, optionally linked to a project
type Meeting struct {
	ID              uuid.UUID     `json:"id"`
	ProjectID       *uuid.UUID    `json:"projectId,omitempty"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Location        string        `json:"location,omitempty"`
	StartsAt        time.Time     `json:"startsAt"`
	EndsAt          time.Time     `json:"endsAt"`
	Attendees       []string      `json:"attendees,omitempty"`
	Status          MeetingStatus `json:"status"`
	CalendarEventID string        `json:"calendarEventId,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Summary         string        `json:"summary,omitempty"`
	ActionItems     []ActionItem  `json:"actionItems,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ActionItem represents a follow-up captured from a meeting
type ActionItem struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Duration returns the scheduled length of the meeting
func (m *Meeting) Duration() time.Duration {
	return m.EndsAt.Sub(m.StartsAt)
}

// OpenActionItems returns the action items still to do
func (m *Meeting) OpenActionItems() []ActionItem {
	var open []ActionItem
	for _, item := range m.ActionItems {
		if !item.Done {
			open = append(open, item)
		}
	}
	return open
}

// MeetingInput represents input for creating a meeting
type MeetingInput struct {
	ProjectID   *uuid.UUID `json:"projectId,omitempty"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    time.Time  `json:"startsAt" validate:"required"`
	EndsAt      time.Time  `json:"endsAt" validate:"required"`
	Attendees   []string   `json:"attendees,omitempty" validate:"omitempty,dive,email"`
	Notes       string     `json:"notes,omitempty"`
}

// MeetingUpdateInput represents input for updating a meeting
type MeetingUpdateInput struct {
	ProjectID   *uuid.UUID     `json:"projectId,omitempty"`
	Title       *string        `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string        `json:"description,omitempty"`
	Location    *string        `json:"location,omitempty"`
	StartsAt    *time.Time     `json:"startsAt,omitempty"`
	EndsAt      *time.Time     `json:"endsAt,omitempty"`
	Attendees   []string       `json:"attendees,omitempty" validate:"omitempty,dive,email"`
	Status      *MeetingStatus `json:"status,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	ActionItems []ActionItem   `json:"actionItems,omitempty"`
}

// MeetingFilter represents filter options for querying meetings
type MeetingFilter struct {
	ProjectID *uuid.UUID
	Status    *MeetingStatus
	From      *time.Time
	To        *time.Time

	Limit  int
	Offset int
}

// MeetingList represents a paginated list of meetings
type MeetingList struct {
	Meetings   []Meeting `json:"meetings"`
	TotalCount int64     `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}

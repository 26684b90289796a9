package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

const calendarBaseURL = "https://www.googleapis.com/calendar/v3"

// maxEventResults bounds one ListEvents page. The sync windows Angela uses
// are days wide, so a single page is always enough.
const maxEventResults = 250

// CalendarClient talks to the Calendar v3 REST API.
type CalendarClient struct {
	http    *http.Client
	baseURL string
}

func NewCalendarClient(httpClient *http.Client) *CalendarClient {
	return &CalendarClient{
		http:    httpClient,
		baseURL: calendarBaseURL,
	}
}

// Event is the flattened view of a calendar entry. All-day events carry
// midnight timestamps in the calendar's local zone.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
}

type calendarEvent struct {
	ID          string             `json:"id,omitempty"`
	Status      string             `json:"status,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	Start       *calendarTime      `json:"start,omitempty"`
	End         *calendarTime      `json:"end,omitempty"`
	Attendees   []calendarAttendee `json:"attendees,omitempty"`
}

type calendarTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

type calendarAttendee struct {
	Email string `json:"email"`
}

// ListEvents returns the expanded single events between from and to in
// start order. Cancelled instances are dropped.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("timeMin", from.Format(time.RFC3339))
	params.Set("timeMax", to.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", fmt.Sprintf("%d", maxEventResults))

	var resp struct {
		Items []calendarEvent `json:"items"`
	}

	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(calendarID), params.Encode())
	if err := apiCall(ctx, c.http, http.MethodGet, listURL, nil, &resp, "calendar"); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}

		events = append(events, eventFromWire(item))
	}

	return events, nil
}

// CreateEvent inserts an event and returns it with the server-assigned ID.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, ev Event) (*Event, error) {
	var created calendarEvent

	createURL := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(calendarID))
	if err := apiCall(ctx, c.http, http.MethodPost, createURL, eventToWire(ev), &created, "calendar"); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	result := eventFromWire(created)

	return &result, nil
}

// UpdateEvent patches an existing event. Zero-valued fields on ev are left
// untouched on the server.
func (c *CalendarClient) UpdateEvent(ctx context.Context, calendarID string, ev Event) (*Event, error) {
	if ev.ID == "" {
		return nil, apperrors.BadRequest("event id is required")
	}

	wire := eventToWire(ev)
	wire.ID = ""

	var updated calendarEvent

	updateURL := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(calendarID), url.PathEscape(ev.ID))
	if err := apiCall(ctx, c.http, http.MethodPatch, updateURL, wire, &updated, "calendar event"); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	result := eventFromWire(updated)

	return &result, nil
}

// DeleteEvent removes an event. A missing event reports NotFound.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	deleteURL := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := apiCall(ctx, c.http, http.MethodDelete, deleteURL, nil, nil, "calendar event"); err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}

		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

func eventFromWire(item calendarEvent) Event {
	ev := Event{
		ID:          item.ID,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       parseEventTime(item.Start),
		End:         parseEventTime(item.End),
	}

	for _, a := range item.Attendees {
		if a.Email != "" {
			ev.Attendees = append(ev.Attendees, a.Email)
		}
	}

	return ev
}

func eventToWire(ev Event) calendarEvent {
	wire := calendarEvent{
		ID:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
	}

	if !ev.Start.IsZero() {
		wire.Start = &calendarTime{DateTime: ev.Start.Format(time.RFC3339)}
	}

	if !ev.End.IsZero() {
		wire.End = &calendarTime{DateTime: ev.End.Format(time.RFC3339)}
	}

	for _, email := range ev.Attendees {
		wire.Attendees = append(wire.Attendees, calendarAttendee{Email: email})
	}

	return wire
}

// parseEventTime handles both timed (dateTime) and all-day (date) shapes.
func parseEventTime(ct *calendarTime) time.Time {
	if ct == nil {
		return time.Time{}
	}

	if ct.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, ct.DateTime); err == nil {
			return t
		}
	}

	if ct.Date != "" {
		if t, err := time.Parse("2006-01-02", ct.Date); err == nil {
			return t
		}
	}

	return time.Time{}
}

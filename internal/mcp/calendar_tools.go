package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelahq/angela/internal/google"
)

// Calendar is the scheduling surface the calendar toolset needs.
type Calendar interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]google.Event, error)
	CreateEvent(ctx context.Context, calendarID string, ev google.Event) (*google.Event, error)
	UpdateEvent(ctx context.Context, calendarID string, ev google.Event) (*google.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// CalendarToolset returns the calendar_* tools operating on calendarID.
func CalendarToolset(client Calendar, calendarID string) []Tool {
	windowProps := map[string]any{
		"from": map[string]any{
			"type":        "string",
			"description": "Window start as RFC3339 (default now)",
		},
		"to": map[string]any{
			"type":        "string",
			"description": "Window end as RFC3339 (default from + days)",
		},
		"days": map[string]any{
			"type":        "integer",
			"description": "Window length in days when to is not given (default 7)",
		},
	}

	return []Tool{
		{
			Name:        "calendar_list_events",
			Description: "List calendar events in a time window",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": windowProps,
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				from, to, err := resolveWindow(args, time.Now())
				if err != nil {
					return "", err
				}

				events, err := client.ListEvents(ctx, calendarID, from, to)
				if err != nil {
					return "", err
				}

				return formatEvents(events), nil
			},
		},
		{
			Name:        "calendar_create_event",
			Description: "Create a calendar event",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Event title",
					},
					"start": map[string]any{
						"type":        "string",
						"description": "Start time as RFC3339",
					},
					"end": map[string]any{
						"type":        "string",
						"description": "End time as RFC3339 (default start + 1h)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Event details",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "Where the event takes place",
					},
					"attendees": map[string]any{
						"type":        "array",
						"description": "Attendee email addresses",
						"items":       map[string]any{"type": "string"},
					},
				},
				"required": []string{"summary", "start"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				start, err := TimeArg(args, "start")
				if err != nil {
					return "", err
				}

				end, err := TimeArg(args, "end")
				if err != nil {
					return "", err
				}

				if end.IsZero() {
					end = start.Add(time.Hour)
				}

				created, err := client.CreateEvent(ctx, calendarID, google.Event{
					Summary:     StringArg(args, "summary"),
					Description: StringArg(args, "description"),
					Location:    StringArg(args, "location"),
					Start:       start,
					End:         end,
					Attendees:   StringSliceArg(args, "attendees"),
				})
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("Event created: %s at %s (id %s)",
					created.Summary, created.Start.Format(time.RFC3339), created.ID), nil
			},
		},
		{
			Name:        "calendar_update_event",
			Description: "Update fields on an existing event; omitted fields keep their values",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_id": map[string]any{
						"type":        "string",
						"description": "Event ID from a listing",
					},
					"summary": map[string]any{
						"type":        "string",
						"description": "New title",
					},
					"start": map[string]any{
						"type":        "string",
						"description": "New start time as RFC3339",
					},
					"end": map[string]any{
						"type":        "string",
						"description": "New end time as RFC3339",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New details",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "New location",
					},
				},
				"required": []string{"event_id"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				start, err := TimeArg(args, "start")
				if err != nil {
					return "", err
				}

				end, err := TimeArg(args, "end")
				if err != nil {
					return "", err
				}

				updated, err := client.UpdateEvent(ctx, calendarID, google.Event{
					ID:          StringArg(args, "event_id"),
					Summary:     StringArg(args, "summary"),
					Description: StringArg(args, "description"),
					Location:    StringArg(args, "location"),
					Start:       start,
					End:         end,
				})
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("Event updated: %s (id %s)", updated.Summary, updated.ID), nil
			},
		},
		{
			Name:        "calendar_delete_event",
			Description: "Delete an event from the calendar",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_id": map[string]any{
						"type":        "string",
						"description": "Event ID from a listing",
					},
				},
				"required": []string{"event_id"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				eventID := StringArg(args, "event_id")

				if err := client.DeleteEvent(ctx, calendarID, eventID); err != nil {
					return "", err
				}

				return fmt.Sprintf("Event %s deleted", eventID), nil
			},
		},
		{
			Name:        "calendar_find_free_slots",
			Description: "Find open time slots of a minimum length during working hours",
			InputSchema: map[string]any{
				"type": "object",
				"properties": mergeProps(windowProps, map[string]any{
					"duration_minutes": map[string]any{
						"type":        "integer",
						"description": "Minimum slot length in minutes (default 30)",
					},
					"work_start_hour": map[string]any{
						"type":        "integer",
						"description": "Workday start hour 0-23 (default 9)",
					},
					"work_end_hour": map[string]any{
						"type":        "integer",
						"description": "Workday end hour 0-23 (default 17)",
					},
				}),
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				from, to, err := resolveWindow(args, time.Now())
				if err != nil {
					return "", err
				}

				events, err := client.ListEvents(ctx, calendarID, from, to)
				if err != nil {
					return "", err
				}

				duration := time.Duration(IntArg(args, "duration_minutes", 30)) * time.Minute
				workday := google.Workday{
					StartHour: IntArg(args, "work_start_hour", google.DefaultWorkday.StartHour),
					EndHour:   IntArg(args, "work_end_hour", google.DefaultWorkday.EndHour),
				}

				slots := google.FindFreeSlots(events, google.TimeSlot{Start: from, End: to}, duration, workday)

				return formatTimeSlots(slots), nil
			},
		},
	}
}

// resolveWindow reads from/to/days into a concrete window anchored at now.
func resolveWindow(args map[string]any, now time.Time) (time.Time, time.Time, error) {
	from, err := TimeArg(args, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	to, err := TimeArg(args, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if from.IsZero() {
		from = now
	}

	if to.IsZero() {
		to = from.AddDate(0, 0, IntArg(args, "days", 7))
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s is not after start %s",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	return from, to, nil
}

func mergeProps(maps ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}

	return merged
}

func formatEvents(events []google.Event) string {
	if len(events) == 0 {
		return "No events in this window."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d event(s):\n", len(events))

	for i, ev := range events {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, ev.Summary)
		fmt.Fprintf(&b, "   When: %s to %s\n", ev.Start.Format("Mon Jan 2 15:04"), formatEventEnd(ev))
		fmt.Fprintf(&b, "   ID: %s\n", ev.ID)

		if ev.Location != "" {
			fmt.Fprintf(&b, "   Where: %s\n", ev.Location)
		}

		if len(ev.Attendees) > 0 {
			fmt.Fprintf(&b, "   With: %s\n", strings.Join(ev.Attendees, ", "))
		}
	}

	return b.String()
}

func formatEventEnd(ev google.Event) string {
	sy, sm, sd := ev.Start.Date()
	ey, em, ed := ev.End.Date()

	if sy == ey && sm == em && sd == ed {
		return ev.End.Format("15:04")
	}

	return ev.End.Format("Mon Jan 2 15:04")
}

func formatTimeSlots(slots []google.TimeSlot) string {
	if len(slots) == 0 {
		return "No free slots in this window."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d free slot(s):\n", len(slots))

	for _, s := range slots {
		fmt.Fprintf(&b, "- %s to %s (%s)\n",
			s.Start.Format("Mon Jan 2 15:04"), s.End.Format("15:04"), s.Duration())
	}

	return b.String()
}

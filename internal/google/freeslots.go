package google

import (
	"sort"
	"time"
)

// TimeSlot is a half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Workday bounds free-slot search to working hours, expressed in the
// window's local time zone.
type Workday struct {
	StartHour int
	EndHour   int
}

// DefaultWorkday is used when the caller passes a zero Workday.
var DefaultWorkday = Workday{StartHour: 9, EndHour: 17}

func (w Workday) orDefault() Workday {
	if w.StartHour == 0 && w.EndHour == 0 {
		return DefaultWorkday
	}

	return w
}

// FindFreeSlots computes the open intervals of at least minDuration inside
// window, restricted to workday hours and minus the busy events. Events may
// overlap each other and extend past the window edges.
func FindFreeSlots(events []Event, window TimeSlot, minDuration time.Duration, workday Workday) []TimeSlot {
	workday = workday.orDefault()

	if minDuration <= 0 {
		minDuration = 30 * time.Minute
	}

	if !window.End.After(window.Start) {
		return nil
	}

	busy := make([]TimeSlot, 0, len(events))
	for _, ev := range events {
		if ev.End.After(ev.Start) {
			busy = append(busy, TimeSlot{Start: ev.Start, End: ev.End})
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	var free []TimeSlot

	loc := window.Start.Location()
	for day := window.Start; day.Before(window.End); {
		y, m, d := day.Date()
		dayStart := time.Date(y, m, d, workday.StartHour, 0, 0, 0, loc)
		dayEnd := time.Date(y, m, d, workday.EndHour, 0, 0, 0, loc)
		day = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)

		if dayStart.Before(window.Start) {
			dayStart = window.Start
		}

		if dayEnd.After(window.End) {
			dayEnd = window.End
		}

		if !dayEnd.After(dayStart) {
			continue
		}

		cursor := dayStart
		for _, b := range busy {
			if !b.End.After(cursor) || !b.Start.Before(dayEnd) {
				continue
			}

			if b.Start.Sub(cursor) >= minDuration {
				free = append(free, TimeSlot{Start: cursor, End: b.Start})
			}

			if b.End.After(cursor) {
				cursor = b.End
			}

			if !cursor.Before(dayEnd) {
				break
			}
		}

		if dayEnd.Sub(cursor) >= minDuration {
			free = append(free, TimeSlot{Start: cursor, End: dayEnd})
		}
	}

	return free
}

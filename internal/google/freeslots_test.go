package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at returns a time d days after the base Monday at h:m UTC.
func at(d, h, m int) time.Time {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, d).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func workhours() Workday {
	return Workday{StartHour: 9, EndHour: 17}
}

func TestFindFreeSlots_EmptyCalendar(t *testing.T) {
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(nil, window, 30*time.Minute, workhours())

	require.Len(t, slots, 1)
	assert.Equal(t, at(0, 9, 0), slots[0].Start)
	assert.Equal(t, at(0, 17, 0), slots[0].End)
	assert.Equal(t, 8*time.Hour, slots[0].Duration())
}

func TestFindFreeSlots_SplitsAroundMeetings(t *testing.T) {
	events := []Event{
		{Summary: "standup", Start: at(0, 10, 0), End: at(0, 11, 0)},
		{Summary: "review", Start: at(0, 14, 0), End: at(0, 15, 30)},
	}
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(events, window, 30*time.Minute, workhours())

	require.Len(t, slots, 3)
	assert.Equal(t, TimeSlot{Start: at(0, 9, 0), End: at(0, 10, 0)}, slots[0])
	assert.Equal(t, TimeSlot{Start: at(0, 11, 0), End: at(0, 14, 0)}, slots[1])
	assert.Equal(t, TimeSlot{Start: at(0, 15, 30), End: at(0, 17, 0)}, slots[2])
}

func TestFindFreeSlots_MinDurationFiltersShortGaps(t *testing.T) {
	events := []Event{
		{Start: at(0, 9, 0), End: at(0, 12, 0)},
		{Start: at(0, 12, 45), End: at(0, 17, 0)},
	}
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(events, window, time.Hour, workhours())

	assert.Empty(t, slots, "45 minute gap should not fit a one hour slot")

	slots = FindFreeSlots(events, window, 30*time.Minute, workhours())

	require.Len(t, slots, 1)
	assert.Equal(t, TimeSlot{Start: at(0, 12, 0), End: at(0, 12, 45)}, slots[0])
}

func TestFindFreeSlots_OverlappingEvents(t *testing.T) {
	events := []Event{
		{Start: at(0, 11, 0), End: at(0, 13, 0)},
		{Start: at(0, 10, 0), End: at(0, 12, 0)},
	}
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(events, window, 30*time.Minute, workhours())

	require.Len(t, slots, 2)
	assert.Equal(t, TimeSlot{Start: at(0, 9, 0), End: at(0, 10, 0)}, slots[0])
	assert.Equal(t, TimeSlot{Start: at(0, 13, 0), End: at(0, 17, 0)}, slots[1])
}

func TestFindFreeSlots_MultiDayWindow(t *testing.T) {
	events := []Event{
		{Start: at(0, 9, 0), End: at(0, 16, 0)},
	}
	window := TimeSlot{Start: at(0, 0, 0), End: at(2, 0, 0)}

	slots := FindFreeSlots(events, window, time.Hour, workhours())

	require.Len(t, slots, 2)
	assert.Equal(t, TimeSlot{Start: at(0, 16, 0), End: at(0, 17, 0)}, slots[0])
	assert.Equal(t, TimeSlot{Start: at(1, 9, 0), End: at(1, 17, 0)}, slots[1])
}

func TestFindFreeSlots_WindowEdgesClampSlots(t *testing.T) {
	window := TimeSlot{Start: at(0, 10, 30), End: at(0, 15, 0)}

	slots := FindFreeSlots(nil, window, 30*time.Minute, workhours())

	require.Len(t, slots, 1)
	assert.Equal(t, TimeSlot{Start: at(0, 10, 30), End: at(0, 15, 0)}, slots[0])
}

func TestFindFreeSlots_EventSpillingPastWindow(t *testing.T) {
	events := []Event{
		{Start: at(0, 8, 0), End: at(0, 10, 0)},
		{Start: at(0, 16, 0), End: at(0, 19, 0)},
	}
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(events, window, 30*time.Minute, workhours())

	require.Len(t, slots, 1)
	assert.Equal(t, TimeSlot{Start: at(0, 10, 0), End: at(0, 16, 0)}, slots[0])
}

func TestFindFreeSlots_ZeroWorkdayUsesDefault(t *testing.T) {
	window := TimeSlot{Start: at(0, 0, 0), End: at(1, 0, 0)}

	slots := FindFreeSlots(nil, window, 30*time.Minute, Workday{})

	require.Len(t, slots, 1)
	assert.Equal(t, at(0, DefaultWorkday.StartHour, 0), slots[0].Start)
	assert.Equal(t, at(0, DefaultWorkday.EndHour, 0), slots[0].End)
}

func TestFindFreeSlots_InvalidWindow(t *testing.T) {
	window := TimeSlot{Start: at(0, 17, 0), End: at(0, 9, 0)}

	assert.Nil(t, FindFreeSlots(nil, window, 30*time.Minute, workhours()))
}

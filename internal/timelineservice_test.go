package internal

import (
	"testing"
	"time"

	"github.com/bebevio27-prog/calendar/internal/cache"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimelineFixture(t *testing.T) (*serviceFixture, *timelineService) {
	f := newServiceFixture()
	tl, ok := NewTimelineService(f.data, testLogger()).(*timelineService)
	require.True(t, ok)
	return f, tl
}

func TestWeekView(t *testing.T) {
	f, tl := newTimelineFixture(t)
	ctx := userContext(42)

	// A weekly standup plus a one-off appointment in the same week
	_, err := f.service.Create(ctx, &models.Event{
		Name: "Standup", IsRecurring: true,
		Schedule: models.SlotList{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:15"},
			{DayOfWeek: 3, StartTime: "09:00", EndTime: "09:15"},
		},
	})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, &models.Event{
		Name: "Dentist", Date: "2025-03-12", StartTime: "14:00", EndTime: "15:00",
	})
	require.NoError(t, err)

	view, err := tl.Week(ctx, "2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", view.WeekStart)
	assert.Equal(t, "2025-03-16", view.WeekEnd)
	require.Len(t, view.Occurrences, 3)
	// Hour span covers 09:00 through 15:00 with one hour of padding
	assert.Equal(t, 8, view.Hours.Start)
	assert.Equal(t, 16, view.Hours.End)
}

func TestWeekViewAppliesOverrides(t *testing.T) {
	f, tl := newTimelineFixture(t)
	ctx := userContext(42)

	ev, err := f.service.Create(ctx, &models.Event{
		Name: "Standup", IsRecurring: true,
		Schedule: models.SlotList{{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:15"}},
	})
	require.NoError(t, err)
	_, err = f.service.SetOverride(ctx, &models.EventOverride{
		EventID: ev.ID, OriginalDate: "2025-03-10", Cancelled: true,
	})
	require.NoError(t, err)

	view, err := tl.Week(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, view.Occurrences)

	// The following week is unaffected
	view, err = tl.Week(ctx, "2025-03-17")
	require.NoError(t, err)
	require.Len(t, view.Occurrences, 1)
	assert.Equal(t, "2025-03-17", view.Occurrences[0].Date)
}

func TestWeekViewRejectsIllegalDate(t *testing.T) {
	_, tl := newTimelineFixture(t)
	_, err := tl.Week(userContext(42), "not-a-date")
	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeIllegalDate, httpErr.ErrorCode())
}

func TestDayView(t *testing.T) {
	f, tl := newTimelineFixture(t)
	ctx := userContext(42)
	tl.now = func() time.Time {
		return time.Date(2025, time.March, 10, 9, 5, 0, 0, time.Local)
	}

	_, err := f.service.Create(ctx, &models.Event{
		Name: "Standup", IsRecurring: true,
		Schedule: models.SlotList{{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:15"}},
	})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, &models.Event{
		Name: "Dentist", Date: "2025-03-10", StartTime: "14:00", EndTime: "15:00",
	})
	require.NoError(t, err)

	view, err := tl.Day(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", view.Date)
	require.Len(t, view.Occurrences, 2)
	// Sorted by start time, and only the running one is flagged
	assert.Equal(t, "Standup", view.Occurrences[0].EventName)
	assert.True(t, view.Occurrences[0].Now)
	assert.Equal(t, "Dentist", view.Occurrences[1].EventName)
	assert.False(t, view.Occurrences[1].Now)
}

func TestDayViewEmptyDateUsesToday(t *testing.T) {
	f, tl := newTimelineFixture(t)
	ctx := userContext(42)
	tl.now = func() time.Time {
		return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)
	}

	_, err := f.service.Create(ctx, &models.Event{
		Name: "Dentist", Date: "2025-03-10", StartTime: "14:00", EndTime: "15:00",
	})
	require.NoError(t, err)

	view, err := tl.Day(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", view.Date)
	require.Len(t, view.Occurrences, 1)
}

func TestTimelineScopesAreIsolated(t *testing.T) {
	f, tl := newTimelineFixture(t)

	_, err := f.service.Create(userContext(1), &models.Event{
		Name: "Mine", Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	view, err := tl.Week(userContext(2), "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, view.Occurrences)
}

func TestTimelineReportsCorruptedTimes(t *testing.T) {
	f := newServiceFixture()
	// Bypass the service so a malformed stored time reaches the core
	f.events.events[1] = models.Event{
		ID: 1, Name: "Broken", OwnerID: 42, Date: "2025-03-10", StartTime: "9am", EndTime: "10:00",
	}
	data := cache.New(f.events, f.overrides, testLogger())
	tl, ok := NewTimelineService(data, testLogger()).(*timelineService)
	require.True(t, ok)

	_, err := tl.Day(userContext(42), "2025-03-10")
	require.Error(t, err)
	httpErr, isHTTP := err.(*HTTPError)
	require.True(t, isHTTP)
	assert.Equal(t, ErrCodeMalformedTime, httpErr.ErrorCode())
}

package schedule

import (
	"testing"
	"time"

	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func strPtr(s string) *string {
	return &s
}

func TestTimeToMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"23:59", 1439, false},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
		{"12:3x", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TimeToMinutes(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrMalformedTime, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"midweek", date(2025, time.March, 12), date(2025, time.March, 10), date(2025, time.March, 16)},
		{"monday", date(2025, time.March, 10), date(2025, time.March, 10), date(2025, time.March, 16)},
		{"sunday", date(2025, time.March, 16), date(2025, time.March, 10), date(2025, time.March, 16)},
		{"year boundary", date(2026, time.January, 1), date(2025, time.December, 29), date(2026, time.January, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.ref)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestExpand(t *testing.T) {
	ev := models.Event{
		ID:          1,
		Name:        "Yoga",
		Color:       "#22c55e",
		IsRecurring: true,
		Schedule: models.SlotList{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}, // Monday
			{DayOfWeek: 3, StartTime: "18:00", EndTime: "19:30"}, // Wednesday
		},
	}
	// 2025-03-10 is a Monday
	occs := Expand(ev, date(2025, time.March, 10), date(2025, time.March, 16))
	require.Len(t, occs, 2)
	assert.Equal(t, "2025-03-10", occs[0].Date)
	assert.Equal(t, "09:00", occs[0].StartTime)
	assert.Equal(t, "2025-03-12", occs[1].Date)
	assert.Equal(t, "19:30", occs[1].EndTime)
	for _, occ := range occs {
		assert.True(t, occ.IsRecurring)
		assert.Equal(t, ev.ID, occ.EventID)
		assert.Equal(t, ev.Name, occ.EventName)
	}
}

func TestExpandCountMatchesSlots(t *testing.T) {
	// One occurrence per (day in window, matching slot) pair
	ev := models.Event{
		ID:          7,
		IsRecurring: true,
		Schedule: models.SlotList{
			{DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00"},
			{DayOfWeek: 2, StartTime: "15:00", EndTime: "16:00"}, // second session same day
			{DayOfWeek: 5, StartTime: "12:00", EndTime: "13:00"},
		},
	}
	// Two full weeks: 2 Tuesdays x 2 slots + 2 Fridays x 1 slot
	occs := Expand(ev, date(2025, time.March, 10), date(2025, time.March, 23))
	require.Len(t, occs, 6)
	// Same-day slots keep their declaration order
	assert.Equal(t, "08:00", occs[0].StartTime)
	assert.Equal(t, "15:00", occs[1].StartTime)
	assert.Equal(t, occs[0].Date, occs[1].Date)
}

func TestExpandEmptySchedule(t *testing.T) {
	ev := models.Event{ID: 2, IsRecurring: true}
	occs := Expand(ev, date(2025, time.March, 1), date(2025, time.March, 31))
	assert.Empty(t, occs)
}

func TestExpandDegenerateTimesPassThrough(t *testing.T) {
	ev := models.Event{
		ID:          3,
		IsRecurring: true,
		Schedule:    models.SlotList{{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"}},
	}
	occs := Expand(ev, date(2025, time.March, 10), date(2025, time.March, 10))
	require.Len(t, occs, 1)
	assert.Equal(t, "10:00", occs[0].StartTime)
	assert.Equal(t, "09:00", occs[0].EndTime)
}

func TestResolve(t *testing.T) {
	occ := Occurrence{EventID: 1, Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	tests := []struct {
		name      string
		overrides []models.EventOverride
		wantKeep  bool
		wantStart string
		wantEnd   string
	}{
		{"no override", nil, true, "09:00", "10:00"},
		{
			"cancelled",
			[]models.EventOverride{{EventID: 1, OriginalDate: "2025-03-10", Cancelled: true}},
			false, "", "",
		},
		{
			"both times shifted",
			[]models.EventOverride{{
				EventID: 1, OriginalDate: "2025-03-10",
				NewStartTime: strPtr("11:00"), NewEndTime: strPtr("12:00"),
			}},
			true, "11:00", "12:00",
		},
		{
			"start only - end falls back to slot time",
			[]models.EventOverride{{EventID: 1, OriginalDate: "2025-03-10", NewStartTime: strPtr("09:30")}},
			true, "09:30", "10:00",
		},
		{
			"other date untouched",
			[]models.EventOverride{{EventID: 1, OriginalDate: "2025-03-17", Cancelled: true}},
			true, "09:00", "10:00",
		},
		{
			"other event untouched",
			[]models.EventOverride{{EventID: 2, OriginalDate: "2025-03-10", Cancelled: true}},
			true, "09:00", "10:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := Resolve(occ, tt.overrides)
			require.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.wantStart, got.StartTime)
				assert.Equal(t, tt.wantEnd, got.EndTime)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	occ := Occurrence{EventID: 1, Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	overrides := []models.EventOverride{
		{EventID: 1, OriginalDate: "2025-03-10", NewStartTime: strPtr("09:30")},
	}
	first, keepFirst := Resolve(occ, overrides)
	second, keepSecond := Resolve(occ, overrides)
	assert.Equal(t, first, second)
	assert.Equal(t, keepFirst, keepSecond)
	// The input occurrence must not have been modified
	assert.Equal(t, "09:00", occ.StartTime)
}

func TestResolveFirstMatchWins(t *testing.T) {
	// Duplicate overrides are a data anomaly the upsert prevents - should one
	// exist anyway, the first one found is applied
	occ := Occurrence{EventID: 1, Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}
	overrides := []models.EventOverride{
		{EventID: 1, OriginalDate: "2025-03-10", NewStartTime: strPtr("11:00")},
		{EventID: 1, OriginalDate: "2025-03-10", Cancelled: true},
	}
	got, keep := Resolve(occ, overrides)
	require.True(t, keep)
	assert.Equal(t, "11:00", got.StartTime)
}

func TestBuildTimelineSingleEventWindowBoundaries(t *testing.T) {
	ev := models.Event{ID: 5, Name: "Dentist", Date: "2025-03-16", StartTime: "14:00", EndTime: "15:00"}
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"inside window", date(2025, time.March, 10), date(2025, time.March, 16), 1},
		{"exactly on window end", date(2025, time.March, 16), date(2025, time.March, 16), 1},
		{"one day after window end", date(2025, time.March, 10), date(2025, time.March, 15), 0},
		{"before window start", date(2025, time.March, 17), date(2025, time.March, 23), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs := BuildTimeline([]models.Event{ev}, nil, tt.start, tt.end)
			assert.Len(t, occs, tt.want)
		})
	}
}

func TestBuildTimelineCancellationSpansSingleWeek(t *testing.T) {
	ev := models.Event{
		ID:          1,
		Name:        "Standup",
		IsRecurring: true,
		Schedule:    models.SlotList{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
	}
	// Cancel the Monday two weeks out
	overrides := []models.EventOverride{
		{EventID: 1, OriginalDate: "2025-03-24", Cancelled: true},
	}
	weeks := []struct {
		start time.Time
		want  int
	}{
		{date(2025, time.March, 10), 1},
		{date(2025, time.March, 17), 1},
		{date(2025, time.March, 24), 0},
		{date(2025, time.March, 31), 1},
	}
	for _, w := range weeks {
		occs := BuildTimeline([]models.Event{ev}, overrides, w.start, w.start.AddDate(0, 0, 6))
		assert.Len(t, occs, w.want, "week starting %s", FormatDate(w.start))
	}
}

func TestBuildTimelineSingleDatedEndToEnd(t *testing.T) {
	ev := models.Event{ID: 9, Name: "Checkup", Date: "2025-03-10", StartTime: "14:00", EndTime: "15:00"}
	occs := BuildTimeline([]models.Event{ev}, nil, date(2025, time.March, 10), date(2025, time.March, 16))
	require.Len(t, occs, 1)
	assert.Equal(t, "2025-03-10", occs[0].Date)
	assert.False(t, occs[0].IsRecurring)

	occs = BuildTimeline([]models.Event{ev}, nil, date(2025, time.March, 3), date(2025, time.March, 9))
	assert.Empty(t, occs)
}

func TestBuildTimelineKeepsDuplicates(t *testing.T) {
	// Two distinct events at the identical date and time are two occurrences
	events := []models.Event{
		{ID: 1, Name: "A", Date: "2025-03-12", StartTime: "10:00", EndTime: "11:00"},
		{ID: 2, Name: "B", Date: "2025-03-12", StartTime: "10:00", EndTime: "11:00"},
	}
	occs := BuildTimeline(events, nil, date(2025, time.March, 10), date(2025, time.March, 16))
	assert.Len(t, occs, 2)
}

func TestDailyOccurrences(t *testing.T) {
	events := []models.Event{
		{ID: 1, Name: "Late", Date: "2025-03-12", StartTime: "16:00", EndTime: "17:00"},
		{
			ID: 2, Name: "Early", IsRecurring: true,
			Schedule: models.SlotList{{DayOfWeek: 3, StartTime: "08:00", EndTime: "09:00"}},
		},
		{ID: 3, Name: "AlsoLate", Date: "2025-03-12", StartTime: "16:00", EndTime: "18:00"},
	}
	occs, err := DailyOccurrences(events, nil, date(2025, time.March, 12))
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, "Early", occs[0].EventName)
	// Equal start times keep the event order
	assert.Equal(t, "Late", occs[1].EventName)
	assert.Equal(t, "AlsoLate", occs[2].EventName)
}

func TestDailyOccurrencesMalformedTime(t *testing.T) {
	events := []models.Event{
		{ID: 1, Name: "Broken", Date: "2025-03-12", StartTime: "garbage", EndTime: "17:00"},
	}
	_, err := DailyOccurrences(events, nil, date(2025, time.March, 12))
	require.Error(t, err)
	assert.Equal(t, ErrMalformedTime, errors.Cause(err))
}

func TestIsOccurringNow(t *testing.T) {
	occ := Occurrence{EventID: 1, Date: "2025-03-12", StartTime: "09:00", EndTime: "10:00"}
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at start boundary", time.Date(2025, time.March, 12, 9, 0, 0, 0, time.Local), true},
		{"in the middle", time.Date(2025, time.March, 12, 9, 30, 0, 0, time.Local), true},
		{"at end boundary", time.Date(2025, time.March, 12, 10, 0, 0, 0, time.Local), true},
		{"one minute after", time.Date(2025, time.March, 12, 10, 1, 0, 0, time.Local), false},
		{"one minute before", time.Date(2025, time.March, 12, 8, 59, 0, 0, time.Local), false},
		{"different date", time.Date(2025, time.March, 13, 9, 30, 0, 0, time.Local), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsOccurringNow(occ, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVisibleHourRange(t *testing.T) {
	tests := []struct {
		name string
		occs []Occurrence
		want HourRange
	}{
		{"no occurrences - working day default", nil, HourRange{Start: 8, End: 20}},
		{
			"padded by one hour",
			[]Occurrence{{StartTime: "09:00", EndTime: "17:30"}},
			HourRange{Start: 8, End: 19},
		},
		{
			"clamped to day start",
			[]Occurrence{{StartTime: "00:30", EndTime: "06:00"}},
			HourRange{Start: 0, End: 7},
		},
		{
			"clamped to day end",
			[]Occurrence{{StartTime: "22:00", EndTime: "23:45"}},
			HourRange{Start: 21, End: 24},
		},
		{
			"spans multiple occurrences",
			[]Occurrence{
				{StartTime: "10:00", EndTime: "11:00"},
				{StartTime: "14:00", EndTime: "15:15"},
			},
			HourRange{Start: 9, End: 17},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VisibleHourRange(tt.occs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

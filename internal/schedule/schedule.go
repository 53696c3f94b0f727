// Package schedule contains the pure calendar core: it expands the weekly
// schedule of recurring events into concrete dated occurrences, applies
// per-date overrides (time shifts or cancellations) and merges the result with
// single-dated events into one render-ready timeline.
//
// All functions in this package are free of side effects. Time strings are
// expected in zero-padded 24-hour "HH:mm" format and dates in "YYYY-MM-DD" -
// malformed persisted values surface as ErrMalformedTime and indicate a data
// integrity problem, not a user-facing condition.
package schedule

import (
	"sort"
	"time"

	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/pkg/errors"
)

// DateFormat is the canonical date key layout used for all date comparisons
const DateFormat = "2006-01-02"

// ErrMalformedTime is fired when a persisted time string cannot be parsed
var ErrMalformedTime = errors.New("malformed time string")

// Occurrence is one concrete, dated and timed instance of an event - either
// derived from a recurring event's schedule or the projection of a single-dated
// event. Occurrences are computed on demand and never persisted; EventID is the
// only link back to the source event
type Occurrence struct {
	EventID     uint   `json:"eventId"`
	EventName   string `json:"eventName"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsRecurring bool   `json:"isRecurring"`
}

// HourRange is the inclusive hour span the calendar grid needs to render a set
// of occurrences
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FormatDate returns the canonical "YYYY-MM-DD" key for the given point in time
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// TimeToMinutes parses a zero-padded 24-hour "HH:mm" string into minutes since
// midnight
func TimeToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, errors.Wrapf(ErrMalformedTime, "'%s'", s)
	}
	var mins int
	for i, c := range []byte(s) {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(ErrMalformedTime, "'%s'", s)
		}
		switch i {
		case 0:
			mins += int(c-'0') * 600
		case 1:
			mins += int(c-'0') * 60
		case 3:
			mins += int(c-'0') * 10
		case 4:
			mins += int(c - '0')
		}
	}
	return mins, nil
}

// dateOnly truncates a point in time to its local calendar day
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekWindow returns the inclusive bounds of the ISO week (Monday to Sunday)
// containing the given reference date
func WeekWindow(ref time.Time) (time.Time, time.Time) {
	day := dateOnly(ref)
	// time.Weekday starts the week on Sunday
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// Expand materializes the occurrences of a recurring event for every calendar
// day in the inclusive window [windowStart, windowEnd]. For each day, every
// schedule slot whose weekday matches produces one occurrence; emission order
// is by date ascending, then by slot order as declared on the event. An event
// with an empty schedule expands to nothing.
//
// Overrides are not applied here - see Resolve.
func Expand(ev models.Event, windowStart, windowEnd time.Time) []Occurrence {
	var ret []Occurrence
	end := dateOnly(windowEnd)
	for day := dateOnly(windowStart); !day.After(end); day = day.AddDate(0, 0, 1) {
		dow := int(day.Weekday())
		for _, slot := range ev.Schedule {
			if slot.DayOfWeek != dow {
				continue
			}
			ret = append(ret, Occurrence{
				EventID:     ev.ID,
				EventName:   ev.Name,
				Description: ev.Description,
				Color:       ev.Color,
				Date:        FormatDate(day),
				StartTime:   slot.StartTime,
				EndTime:     slot.EndTime,
				IsRecurring: true,
			})
		}
	}
	return ret
}

// Resolve applies the override matching the occurrence's (eventId, date) pair,
// if any. It returns false when the occurrence has been cancelled for that
// date; otherwise the returned occurrence carries the override's replacement
// times where present and the original slot times where not. Without a matching
// override the occurrence is returned unchanged.
//
// At most one override is expected per (eventId, date) pair - should the
// storage ever contain more, the first one found wins.
func Resolve(occ Occurrence, overrides []models.EventOverride) (Occurrence, bool) {
	for _, o := range overrides {
		if o.EventID != occ.EventID || o.OriginalDate != occ.Date {
			continue
		}
		if o.Cancelled {
			return Occurrence{}, false
		}
		if o.NewStartTime != nil {
			occ.StartTime = *o.NewStartTime
		}
		if o.NewEndTime != nil {
			occ.EndTime = *o.NewEndTime
		}
		return occ, true
	}
	return occ, true
}

// BuildTimeline merges all events into the flat occurrence list for the
// inclusive window [windowStart, windowEnd]: recurring events are expanded and
// resolved against the overrides (cancelled occurrences are dropped),
// single-dated events are included iff their date lies in the window. The
// result preserves event order and is not deduplicated - two events sharing
// date and time legitimately coexist.
func BuildTimeline(events []models.Event, overrides []models.EventOverride, windowStart, windowEnd time.Time) []Occurrence {
	startKey := FormatDate(windowStart)
	endKey := FormatDate(windowEnd)
	ret := []Occurrence{}
	for _, ev := range events {
		if ev.IsRecurring {
			for _, occ := range Expand(ev, windowStart, windowEnd) {
				if resolved, ok := Resolve(occ, overrides); ok {
					ret = append(ret, resolved)
				}
			}
			continue
		}
		// The canonical date keys compare correctly as plain strings
		if ev.Date >= startKey && ev.Date <= endKey {
			ret = append(ret, Occurrence{
				EventID:     ev.ID,
				EventName:   ev.Name,
				Description: ev.Description,
				Color:       ev.Color,
				Date:        ev.Date,
				StartTime:   ev.StartTime,
				EndTime:     ev.EndTime,
				IsRecurring: false,
			})
		}
	}
	return ret
}

// DailyOccurrences returns the merged timeline for a single calendar day,
// sorted ascending by start time. Occurrences starting at the same minute keep
// their event order
func DailyOccurrences(events []models.Event, overrides []models.EventOverride, day time.Time) ([]Occurrence, error) {
	occs := BuildTimeline(events, overrides, day, day)
	type timed struct {
		occ   Occurrence
		start int
	}
	timeline := make([]timed, len(occs))
	for i, occ := range occs {
		mins, err := TimeToMinutes(occ.StartTime)
		if err != nil {
			return nil, err
		}
		timeline[i] = timed{occ: occ, start: mins}
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].start < timeline[j].start
	})
	ret := make([]Occurrence, len(timeline))
	for i, entry := range timeline {
		ret[i] = entry.occ
	}
	return ret, nil
}

// IsOccurringNow checks if the given occurrence is running at the given point
// in time. The boundary minutes count as running
func IsOccurringNow(occ Occurrence, now time.Time) (bool, error) {
	if occ.Date != FormatDate(now) {
		return false, nil
	}
	start, err := TimeToMinutes(occ.StartTime)
	if err != nil {
		return false, err
	}
	end, err := TimeToMinutes(occ.EndTime)
	if err != nil {
		return false, err
	}
	nowMins := now.Hour()*60 + now.Minute()
	return nowMins >= start && nowMins <= end, nil
}

// VisibleHourRange derives the hour span the calendar grid has to render for
// the given occurrences: the hour below the earliest time to the hour above
// the latest one, clamped to the [0, 24] day boundary. Without occurrences the
// default working-day span {8, 20} is returned.
//
// Different windows produce different occurrence sets, so this is recomputed
// per query instead of being cached.
func VisibleHourRange(occs []Occurrence) (HourRange, error) {
	if len(occs) == 0 {
		return HourRange{Start: 8, End: 20}, nil
	}
	min, max := 24*60, 0
	for _, occ := range occs {
		for _, s := range []string{occ.StartTime, occ.EndTime} {
			mins, err := TimeToMinutes(s)
			if err != nil {
				return HourRange{}, err
			}
			if mins < min {
				min = mins
			}
			if mins > max {
				max = mins
			}
		}
	}
	startHour := min/60 - 1
	if startHour < 0 {
		startHour = 0
	}
	endHour := (max+59)/60 + 1
	if endHour > 24 {
		endHour = 24
	}
	return HourRange{Start: startHour, End: endHour}, nil
}

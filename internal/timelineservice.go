package internal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bebevio27-prog/calendar/internal/cache"
	"github.com/bebevio27-prog/calendar/internal/schedule"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// TimelineService materializes the logged-in user's events into the views the
// frontend renders: the weekly grid and the daily reminder list. It reads from
// the in-memory cache, loading the user's scope on first use
type TimelineService interface {
	// Week returns the occurrences of the ISO week containing the given
	// reference date, along with the hour span the grid has to render
	Week(ctx context.Context, refDate string) (*WeekView, error)
	// Day returns the occurrences of one calendar day sorted by start time,
	// each flagged whether it is running right now
	Day(ctx context.Context, date string) (*DayView, error)
}

// WeekView is the render-ready projection of one calendar week
type WeekView struct {
	// First day of the week ("YYYY-MM-DD", a Monday)
	WeekStart string `json:"weekStart"`
	// Last day of the week ("YYYY-MM-DD", a Sunday)
	WeekEnd string `json:"weekEnd"`
	// All occurrences falling into the week
	Occurrences []schedule.Occurrence `json:"occurrences"`
	// The vertical hour span the grid needs to show all of them
	Hours schedule.HourRange `json:"hours"`
}

// DayOccurrence is one entry of the daily reminder list
type DayOccurrence struct {
	schedule.Occurrence
	// Whether the occurrence is running at the time of the request
	Now bool `json:"now"`
}

// DayView is the render-ready projection of one calendar day
type DayView struct {
	Date        string          `json:"date"`
	Occurrences []DayOccurrence `json:"occurrences"`
}

// -- TimelineService implementation -----------------------------------------------------------------------------------

type timelineService struct {
	data   *cache.Cache
	logger *logrus.Entry
	// now is replaceable for tests
	now func() time.Time
}

// NewTimelineService creates a new timeline service instance reading from the given cache
func NewTimelineService(data *cache.Cache, logger *logrus.Entry) TimelineService {
	return &timelineService{
		data:   data,
		logger: logger,
		now:    time.Now,
	}
}

// parseDate parses a "YYYY-MM-DD" request parameter; an empty value means today
func (s *timelineService) parseDate(value string) (time.Time, error) {
	if value == "" {
		return s.now(), nil
	}
	day, err := time.ParseInLocation(schedule.DateFormat, value, time.Local)
	if err != nil {
		return time.Time{}, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalDate,
			fmt.Sprintf("'%s' is not a valid calendar date", value),
		)
	}
	return day, nil
}

// timelineError maps a failure of the pure calendar core to an HTTP error.
// Malformed time strings mean corrupted stored data
func timelineError(err error) error {
	if errors.Cause(err) == schedule.ErrMalformedTime {
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeMalformedTime,
			"Stored event data contains a malformed time string",
			err,
		)
	}
	return MakeErrorWithData(http.StatusInternalServerError, ErrCodeUnknown, "Failed to build timeline", err)
}

// Week returns the occurrences of the ISO week containing the given reference date
func (s *timelineService) Week(ctx context.Context, refDate string) (*WeekView, error) {
	ref, err := s.parseDate(refDate)
	if err != nil {
		return nil, err
	}
	ownerID := owner(ctx)
	s.data.Load(ctx, ownerID)
	events, overrides := s.data.Snapshot(ownerID)

	weekStart, weekEnd := schedule.WeekWindow(ref)
	occs := schedule.BuildTimeline(events, overrides, weekStart, weekEnd)
	hours, err := schedule.VisibleHourRange(occs)
	if err != nil {
		return nil, timelineError(err)
	}
	return &WeekView{
		WeekStart:   schedule.FormatDate(weekStart),
		WeekEnd:     schedule.FormatDate(weekEnd),
		Occurrences: occs,
		Hours:       hours,
	}, nil
}

// Day returns the occurrences of one calendar day sorted by start time
func (s *timelineService) Day(ctx context.Context, date string) (*DayView, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	ownerID := owner(ctx)
	s.data.Load(ctx, ownerID)
	events, overrides := s.data.Snapshot(ownerID)

	occs, err := schedule.DailyOccurrences(events, overrides, day)
	if err != nil {
		return nil, timelineError(err)
	}
	now := s.now()
	ret := &DayView{
		Date:        schedule.FormatDate(day),
		Occurrences: make([]DayOccurrence, 0, len(occs)),
	}
	for _, occ := range occs {
		running, err := schedule.IsOccurringNow(occ, now)
		if err != nil {
			return nil, timelineError(err)
		}
		ret.Occurrences = append(ret.Occurrences, DayOccurrence{Occurrence: occ, Now: running})
	}
	return ret, nil
}

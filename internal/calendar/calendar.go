// Package calendar turns a specialist's civil working hours into instants.
// Working hours are defined in the specialist's timezone, stored instants are
// UTC, and nothing here depends on the process timezone.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

var (
	// ErrUnknownTimezone is returned for a tzid the tz database does not know
	ErrUnknownTimezone = errors.New("calendar: unknown timezone")
)

// CivilInterval is a half-open [Start, End) wall-clock interval
type CivilInterval struct {
	Start civil.DateTime
	End   civil.DateTime
}

// Interval is a half-open [Start, End) interval of UTC instants
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the interval
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

var locations sync.Map // tzid -> *time.Location

// Location returns the cached location for tzid
func Location(tzid string) (*time.Location, error) {
	if tzid == "" {
		return nil, fmt.Errorf("%w: empty tzid", ErrUnknownTimezone)
	}
	if loc, ok := locations.Load(tzid); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, tzid, err)
	}
	locations.Store(tzid, loc)
	return loc, nil
}

// ToUTC converts a civil date-time in tzid into a UTC instant. Wall times
// skipped by a DST jump are normalized forward the way time.Date does it.
func ToUTC(tzid string, dt civil.DateTime) (time.Time, error) {
	loc, err := Location(tzid)
	if err != nil {
		return time.Time{}, err
	}
	return dt.In(loc).UTC(), nil
}

// FromUTC converts an instant into the civil date-time observed in tzid
func FromUTC(tzid string, t time.Time) (civil.DateTime, error) {
	loc, err := Location(tzid)
	if err != nil {
		return civil.DateTime{}, err
	}
	return civil.DateTimeOf(t.In(loc)), nil
}

// DateOf returns the civil date of t in tzid
func DateOf(tzid string, t time.Time) (civil.Date, error) {
	dt, err := FromUTC(tzid, t)
	if err != nil {
		return civil.Date{}, err
	}
	return dt.Date, nil
}

// WorkingIntervals returns the specialist's open intervals on date, ordered
// and merged so that no two overlap or touch. An empty result is a day off.
func WorkingIntervals(sp *domain.Specialist, date civil.Date) []CivilInterval {
	ranges := sp.WorkingHours[date.Weekday()]
	if len(ranges) == 0 {
		return nil
	}

	type span struct{ open, close int }
	spans := make([]span, 0, len(ranges))
	for _, r := range ranges {
		from, to := r.Open.Minutes(), r.Close.Minutes()
		if from < 0 || to < 0 || from >= to {
			continue
		}
		spans = append(spans, span{open: from, close: to})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].open < spans[j].open })

	merged := make([]span, 0, len(spans))
	for _, s := range spans {
		if n := len(merged); n > 0 && s.open <= merged[n-1].close {
			if s.close > merged[n-1].close {
				merged[n-1].close = s.close
			}
			continue
		}
		merged = append(merged, s)
	}

	intervals := make([]CivilInterval, len(merged))
	for i, s := range merged {
		intervals[i] = CivilInterval{
			Start: civilAt(date, s.open),
			End:   civilAt(date, s.close),
		}
	}
	return intervals
}

// IntervalsUTC returns the working intervals of date as UTC instants
func IntervalsUTC(sp *domain.Specialist, date civil.Date) ([]Interval, error) {
	civilIntervals := WorkingIntervals(sp, date)
	if len(civilIntervals) == 0 {
		return nil, nil
	}

	loc, err := Location(sp.TZID)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0, len(civilIntervals))
	for _, ci := range civilIntervals {
		start := ci.Start.In(loc).UTC()
		end := ci.End.In(loc).UTC()
		// DST transitions can collapse a short interval
		if !start.Before(end) {
			continue
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	return intervals, nil
}

// DayBoundsUTC returns [00:00 of date, 00:00 of the next day) in tzid as UTC
func DayBoundsUTC(tzid string, date civil.Date) (Interval, error) {
	loc, err := Location(tzid)
	if err != nil {
		return Interval{}, err
	}
	return Interval{
		Start: civilAt(date, 0).In(loc).UTC(),
		End:   civilAt(date.AddDays(1), 0).In(loc).UTC(),
	}, nil
}

// EarliestBookableInstant returns now + the specialist's minimum lead time.
// Slots starting before it are excluded, never rounded forward.
func EarliestBookableInstant(sp *domain.Specialist, now time.Time) time.Time {
	return now.Add(time.Duration(sp.MinLeadMinutes) * time.Minute)
}

// civilAt builds date + minutes; 1440 minutes is midnight of the next day
func civilAt(date civil.Date, minutes int) civil.DateTime {
	if minutes >= 24*60 {
		date = date.AddDays(minutes / (24 * 60))
		minutes %= 24 * 60
	}
	return civil.DateTime{
		Date: date,
		Time: civil.Time{Hour: minutes / 60, Minute: minutes % 60},
	}
}

// Package slots enumerates the admissible start instants of a booking for one
// specialist on one civil date. It never reads the clock: now is an input.
package slots

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/SMC-ClinicBooking/internal/calendar"
	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// Input is everything Generate needs
type Input struct {
	Specialist *domain.Specialist
	Services   []*domain.Service // booked back-to-back, in order
	Date       civil.Date        // civil date in the specialist's timezone
	Now        time.Time
	Existing   []*domain.Booking // bookings of the specialist around Date
}

// RequiredDuration is the sum of the durations of all selected services
func RequiredDuration(services []*domain.Service) time.Duration {
	total := 0
	for _, s := range services {
		total += s.DurationMinutes
	}
	return time.Duration(total) * time.Minute
}

// RequiredBuffer is the largest override among the services, or the
// specialist's default buffer when none of them overrides it
func RequiredBuffer(sp *domain.Specialist, services []*domain.Service) time.Duration {
	buffer := -1
	for _, s := range services {
		if s.BufferMinutesOverride != nil && *s.BufferMinutesOverride > buffer {
			buffer = *s.BufferMinutesOverride
		}
	}
	if buffer < 0 {
		buffer = sp.BufferMinutesDefault
	}
	return time.Duration(buffer) * time.Minute
}

// Generate returns the free slots in ascending start order. A day off, or a
// duration longer than every working interval, yields an empty result.
func Generate(in Input) ([]domain.Slot, error) {
	if err := validate(in.Specialist, in.Services); err != nil {
		return nil, err
	}

	intervals, err := calendar.IntervalsUTC(in.Specialist, in.Date)
	if err != nil {
		return nil, err
	}

	duration := RequiredDuration(in.Services)
	buffer := RequiredBuffer(in.Specialist, in.Services)
	step := time.Duration(in.Specialist.SlotDurationMinutes) * time.Minute
	earliest := calendar.EarliestBookableInstant(in.Specialist, in.Now)
	serviceIDs := idsOf(in.Services)

	result := make([]domain.Slot, 0)
	for _, interval := range intervals {
		for start := interval.Start; !start.Add(duration).After(interval.End); start = start.Add(step) {
			if start.Before(earliest) {
				continue
			}
			if Conflicts(start, start.Add(duration), buffer, in.Existing) != nil {
				continue
			}
			result = append(result, domain.Slot{
				Start:        start,
				End:          start.Add(duration),
				SpecialistID: in.Specialist.ID,
				ServiceID:    serviceIDs[0],
				ServiceIDs:   serviceIDs,
			})
		}
	}

	return result, nil
}

// Admissible checks that start is a slot Generate could emit for some state
// of the ledger: on the grid of a working interval, fitting in it, and not
// before now + lead. Existing bookings are not consulted.
func Admissible(sp *domain.Specialist, services []*domain.Service, start, now time.Time) error {
	if err := validate(sp, services); err != nil {
		return err
	}

	earliest := calendar.EarliestBookableInstant(sp, now)
	if start.Before(earliest) {
		return fmt.Errorf("%w: start %s, earliest %s", ErrBeforeLeadTime,
			start.UTC().Format(time.RFC3339), earliest.UTC().Format(time.RFC3339))
	}

	date, err := calendar.DateOf(sp.TZID, start)
	if err != nil {
		return err
	}

	duration := RequiredDuration(services)
	step := time.Duration(sp.SlotDurationMinutes) * time.Minute

	// The interval containing start may have opened on the previous civil day
	for _, d := range []civil.Date{date, date.AddDays(-1)} {
		intervals, err := calendar.IntervalsUTC(sp, d)
		if err != nil {
			return err
		}
		for _, interval := range intervals {
			if start.Before(interval.Start) || start.Add(duration).After(interval.End) {
				continue
			}
			if start.Sub(interval.Start)%step == 0 {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrOffGrid, start.UTC().Format(time.RFC3339))
}

// Overlaps reports whether half-open [aStart, aEnd) and [bStart, bEnd) intersect
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Conflicts returns the first occupying booking whose buffered window
// overlaps [start, end+buffer), or nil
func Conflicts(start, end time.Time, buffer time.Duration, existing []*domain.Booking) *domain.Booking {
	candidateEnd := end.Add(buffer)
	for _, b := range existing {
		if !b.Occupies() {
			continue
		}
		if Overlaps(start, candidateEnd, b.StartUTC, b.OccupiedUntil()) {
			return b
		}
	}
	return nil
}

func validate(sp *domain.Specialist, services []*domain.Service) error {
	if len(services) == 0 {
		return ErrNoServices
	}
	if sp.SlotDurationMinutes <= 0 {
		return fmt.Errorf("%w: specialist id=%d has %d", ErrInvalidSlotDuration, sp.ID, sp.SlotDurationMinutes)
	}
	for _, s := range services {
		if s.DurationMinutes <= 0 {
			return fmt.Errorf("%w: service id=%d", ErrInvalidServiceDuration, s.ID)
		}
	}
	return nil
}

func idsOf(services []*domain.Service) []int64 {
	ids := make([]int64, len(services))
	for i, s := range services {
		ids[i] = s.ID
	}
	return ids
}

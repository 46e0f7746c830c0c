package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/m04kA/SMC-ClinicBooking/pkg/types"
)

var (
	// ErrInvalidWorkingHours is returned for malformed working-hours definitions
	ErrInvalidWorkingHours = errors.New("domain: invalid working hours")

	// ErrInvalidSpecialist is returned for specialists that cannot be scheduled
	ErrInvalidSpecialist = errors.New("domain: invalid specialist")
)

// TimeRange is a civil [Open, Close) range within one day. Close may be 24:00.
type TimeRange struct {
	Open  types.TimeString
	Close types.TimeString
}

// Validate checks both bounds and their order
func (r TimeRange) Validate() error {
	if err := r.Open.Validate(); err != nil {
		return fmt.Errorf("%w: open %q: %v", ErrInvalidWorkingHours, r.Open, err)
	}
	if r.Open == types.EndOfDay {
		return fmt.Errorf("%w: open cannot be %s", ErrInvalidWorkingHours, types.EndOfDay)
	}
	if err := r.Close.Validate(); err != nil {
		return fmt.Errorf("%w: close %q: %v", ErrInvalidWorkingHours, r.Close, err)
	}
	if r.Open.Minutes() >= r.Close.Minutes() {
		return fmt.Errorf("%w: open %s is not before close %s", ErrInvalidWorkingHours, r.Open, r.Close)
	}
	return nil
}

// WorkingHours maps a weekday to its open ranges. A missing weekday is a day off.
type WorkingHours map[time.Weekday][]TimeRange

// Validate rejects malformed ranges and ranges overlapping within a weekday
func (wh WorkingHours) Validate() error {
	for day, ranges := range wh {
		sorted := make([]TimeRange, len(ranges))
		copy(sorted, ranges)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Open.Minutes() < sorted[j].Open.Minutes() })

		for i, r := range sorted {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			if i > 0 && r.Open.Minutes() < sorted[i-1].Close.Minutes() {
				return fmt.Errorf("%w: %s ranges %s-%s and %s-%s overlap", ErrInvalidWorkingHours,
					day, sorted[i-1].Open, sorted[i-1].Close, r.Open, r.Close)
			}
		}
	}
	return nil
}

// Specialist is the read-only view of a practitioner used by scheduling
type Specialist struct {
	ID                   int64
	Name                 string
	SlotDurationMinutes  int
	BufferMinutesDefault int
	MinLeadMinutes       int
	TZID                 string
	WorkingHours         WorkingHours
}

// Validate checks the scheduling settings of the specialist
func (s *Specialist) Validate() error {
	if s.SlotDurationMinutes < MinSlotDurationMinutes || s.SlotDurationMinutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: slot duration %d is out of range", ErrInvalidSpecialist, s.SlotDurationMinutes)
	}
	if s.BufferMinutesDefault < 0 {
		return fmt.Errorf("%w: negative buffer", ErrInvalidSpecialist)
	}
	if s.MinLeadMinutes < 0 {
		return fmt.Errorf("%w: negative lead time", ErrInvalidSpecialist)
	}
	if _, err := time.LoadLocation(s.TZID); err != nil || s.TZID == "" {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidSpecialist, s.TZID)
	}
	return s.WorkingHours.Validate()
}

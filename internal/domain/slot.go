package domain

import "time"

// Slot is a computed candidate start for a booking. It is never persisted.
type Slot struct {
	Start        time.Time
	End          time.Time
	SpecialistID int64
	ServiceID    int64   // first selected service
	ServiceIDs   []int64 // all selected services, in order
}

// DurationMinutes returns the slot length in minutes
func (s *Slot) DurationMinutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

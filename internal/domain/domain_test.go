package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

func TestBooking_OccupiedUntil(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	b := &Booking{StartUTC: start, EndUTC: start.Add(30 * time.Minute), BufferMinutes: 15}

	assert.Equal(t, start.Add(45*time.Minute), b.OccupiedUntil())
	assert.Equal(t, 30, b.DurationMinutes())
}

func TestBookingStatus_Occupies(t *testing.T) {
	assert.True(t, StatusPending.Occupies())
	assert.True(t, StatusConfirmed.Occupies())
	assert.True(t, StatusCompleted.Occupies())
	assert.False(t, StatusCanceled.Occupies())
	assert.False(t, StatusNoShow.Occupies())
}

func TestBooking_ServiceIDs(t *testing.T) {
	b := &Booking{ServiceID: 7}
	assert.Equal(t, []int64{7}, b.ServiceIDs())

	b.Items = []BookingItem{{ServiceID: 7}, {ServiceID: 9}}
	assert.Equal(t, []int64{7, 9}, b.ServiceIDs())
}

func TestBookingsFilter_Matches(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	b := &Booking{
		SpecialistID:  1,
		StartUTC:      start,
		EndUTC:        start.Add(30 * time.Minute),
		BufferMinutes: 15,
		Status:        StatusConfirmed,
	}

	tests := []struct {
		name   string
		filter BookingsFilter
		want   bool
	}{
		{name: "same specialist", filter: BookingsFilter{SpecialistID: 1}, want: true},
		{name: "other specialist", filter: BookingsFilter{SpecialistID: 2}, want: false},
		{name: "window touches buffer", filter: BookingsFilter{SpecialistID: 1, From: ptr.Ptr(start.Add(40 * time.Minute))}, want: true},
		{name: "window after buffer", filter: BookingsFilter{SpecialistID: 1, From: ptr.Ptr(start.Add(45 * time.Minute))}, want: false},
		{name: "window ends at start", filter: BookingsFilter{SpecialistID: 1, To: ptr.Ptr(start)}, want: false},
		{name: "status mismatch", filter: BookingsFilter{SpecialistID: 1, Status: ptr.Ptr(StatusPending)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(b))
		})
	}

	b.Status = StatusCanceled
	assert.False(t, BookingsFilter{SpecialistID: 1}.Matches(b))
	assert.True(t, BookingsFilter{SpecialistID: 1, IncludeInactive: true}.Matches(b))
}

func TestWorkingHours_Validate(t *testing.T) {
	valid := WorkingHours{
		time.Monday: {{Open: "13:00", Close: "17:00"}, {Open: "09:00", Close: "12:00"}},
		time.Friday: {{Open: "20:00", Close: "24:00"}},
	}
	require.NoError(t, valid.Validate())

	overlapping := WorkingHours{
		time.Monday: {{Open: "09:00", Close: "13:00"}, {Open: "12:00", Close: "17:00"}},
	}
	assert.ErrorIs(t, overlapping.Validate(), ErrInvalidWorkingHours)

	reversed := WorkingHours{time.Monday: {{Open: "17:00", Close: "09:00"}}}
	assert.ErrorIs(t, reversed.Validate(), ErrInvalidWorkingHours)

	empty := WorkingHours{time.Monday: {{Open: "09:00", Close: "09:00"}}}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidWorkingHours)
}

func TestSpecialist_Validate(t *testing.T) {
	sp := &Specialist{SlotDurationMinutes: 30, TZID: "Europe/Moscow"}
	require.NoError(t, sp.Validate())

	sp.TZID = "Mars/Olympus"
	assert.ErrorIs(t, sp.Validate(), ErrInvalidSpecialist)

	sp.TZID = "UTC"
	sp.SlotDurationMinutes = 0
	assert.ErrorIs(t, sp.Validate(), ErrInvalidSpecialist)
}

func TestMergePolicies(t *testing.T) {
	merged := MergePolicies([]*BookingPolicy{
		{AdvanceBookingDays: 30},
		{RequireConfirmation: true, AdvanceBookingDays: 0},
		{AdvanceBookingDays: 14},
		nil,
	})

	assert.True(t, merged.RequireConfirmation)
	assert.Equal(t, 14, merged.AdvanceBookingDays)

	assert.Equal(t, DefaultBookingPolicy(), MergePolicies(nil))
}

package slots

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

// 2025-03-10 is a Monday; Moscow is UTC+3 all year
var (
	monday = civil.Date{Year: 2025, Month: time.March, Day: 10}
	msk    = time.FixedZone("MSK", 3*3600)
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, msk).UTC()
}

func moscowSpecialist() *domain.Specialist {
	return &domain.Specialist{
		ID:                   1,
		SlotDurationMinutes:  30,
		BufferMinutesDefault: 15,
		MinLeadMinutes:       60,
		TZID:                 "Europe/Moscow",
		WorkingHours: domain.WorkingHours{
			time.Monday: {{Open: "09:00", Close: "17:00"}},
		},
	}
}

func service(id int64, minutes int) *domain.Service {
	return &domain.Service{ID: id, Name: "service", DurationMinutes: minutes, PriceCents: 1000, Currency: "RUB"}
}

func starts(slots []domain.Slot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestGenerate_MoscowScenario(t *testing.T) {
	sp := moscowSpecialist()
	services := []*domain.Service{service(10, 30)}
	now := at(8, 0)

	got, err := Generate(Input{Specialist: sp, Services: services, Date: monday, Now: now})
	require.NoError(t, err)

	require.Len(t, got, 16)
	assert.Equal(t, at(9, 0), got[0].Start)
	assert.Equal(t, at(9, 30), got[0].End)
	assert.Equal(t, at(16, 30), got[len(got)-1].Start)
	assert.Equal(t, int64(1), got[0].SpecialistID)
	assert.Equal(t, int64(10), got[0].ServiceID)

	// 09:00 reserved: it occupies [09:00, 09:45) including the buffer
	reserved := &domain.Booking{
		SpecialistID:  1,
		StartUTC:      at(9, 0),
		EndUTC:        at(9, 30),
		BufferMinutes: 15,
		Status:        domain.StatusConfirmed,
	}

	got, err = Generate(Input{Specialist: sp, Services: services, Date: monday, Now: now, Existing: []*domain.Booking{reserved}})
	require.NoError(t, err)

	list := starts(got)
	assert.NotContains(t, list, at(9, 0))
	assert.NotContains(t, list, at(9, 30))
	assert.Contains(t, list, at(10, 0))
	assert.Len(t, got, 14)
}

func TestGenerate_LeadTimeBoundary(t *testing.T) {
	sp := moscowSpecialist()
	services := []*domain.Service{service(10, 30)}

	got, err := Generate(Input{Specialist: sp, Services: services, Date: monday, Now: at(9, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), got[0].Start, "start exactly at now+lead is included")

	got, err = Generate(Input{Specialist: sp, Services: services, Date: monday, Now: at(9, 1)})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30), got[0].Start, "start one minute before now+lead is excluded")
}

func TestGenerate_AggregateDuration(t *testing.T) {
	sp := moscowSpecialist()
	services := []*domain.Service{service(10, 30), service(11, 45)}

	assert.Equal(t, 75*time.Minute, RequiredDuration(services))

	got, err := Generate(Input{Specialist: sp, Services: services, Date: monday, Now: at(7, 0)})
	require.NoError(t, err)

	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, 75, s.DurationMinutes())
		assert.Equal(t, []int64{10, 11}, s.ServiceIDs)
		assert.Equal(t, int64(10), s.ServiceID)
	}
	// grid stays 30 minutes; 15:30 + 75 = 16:45 fits, 16:00 + 75 does not
	assert.Equal(t, at(15, 30), got[len(got)-1].Start)
	assert.Equal(t, at(9, 0), got[0].Start)
}

func TestGenerate_DurationLongerThanOneInterval(t *testing.T) {
	sp := moscowSpecialist()
	sp.WorkingHours = domain.WorkingHours{
		time.Monday: {{Open: "09:00", Close: "10:00"}, {Open: "12:00", Close: "14:00"}},
	}

	got, err := Generate(Input{Specialist: sp, Services: []*domain.Service{service(10, 90)}, Date: monday, Now: at(6, 0)})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(12, 0), at(12, 30)}, starts(got))
}

func TestGenerate_DayOff(t *testing.T) {
	sp := moscowSpecialist()
	sunday := civil.Date{Year: 2025, Month: time.March, Day: 9}

	got, err := Generate(Input{Specialist: sp, Services: []*domain.Service{service(10, 30)}, Date: sunday, Now: at(6, 0)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_ExistingBookings(t *testing.T) {
	sp := moscowSpecialist()
	sp.WorkingHours = domain.WorkingHours{time.Monday: {{Open: "09:00", Close: "12:00"}}}
	services := []*domain.Service{service(10, 30)}

	existing := []*domain.Booking{
		// its own buffer of 30 minutes blocks until 11:00
		{SpecialistID: 1, StartUTC: at(10, 0), EndUTC: at(10, 30), BufferMinutes: 30, Status: domain.StatusPending},
		// canceled bookings never block
		{SpecialistID: 1, StartUTC: at(11, 0), EndUTC: at(11, 30), Status: domain.StatusCanceled},
		{SpecialistID: 1, StartUTC: at(11, 30), EndUTC: at(12, 0), Status: domain.StatusNoShow},
	}

	got, err := Generate(Input{Specialist: sp, Services: services, Date: monday, Now: at(6, 0), Existing: existing})
	require.NoError(t, err)

	// 09:30 + 30 + 15 = 10:15 overlaps the 10:00 booking; 09:00 ends its buffer at 09:45
	assert.Equal(t, []time.Time{at(9, 0), at(11, 0), at(11, 30)}, starts(got))
}

func TestGenerate_Restartable(t *testing.T) {
	in := Input{Specialist: moscowSpecialist(), Services: []*domain.Service{service(10, 30)}, Date: monday, Now: at(8, 0)}

	first, err := Generate(in)
	require.NoError(t, err)
	second, err := Generate(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_Errors(t *testing.T) {
	sp := moscowSpecialist()

	_, err := Generate(Input{Specialist: sp, Date: monday})
	assert.ErrorIs(t, err, ErrNoServices)

	_, err = Generate(Input{Specialist: sp, Services: []*domain.Service{service(10, 0)}, Date: monday})
	assert.ErrorIs(t, err, ErrInvalidServiceDuration)

	sp.SlotDurationMinutes = 0
	_, err = Generate(Input{Specialist: sp, Services: []*domain.Service{service(10, 30)}, Date: monday})
	assert.ErrorIs(t, err, ErrInvalidSlotDuration)
}

func TestRequiredBuffer(t *testing.T) {
	sp := moscowSpecialist()

	tests := []struct {
		name      string
		overrides []*int
		want      time.Duration
	}{
		{name: "no overrides", overrides: []*int{nil, nil}, want: 15 * time.Minute},
		{name: "max override wins", overrides: []*int{ptr.Ptr(10), nil, ptr.Ptr(20)}, want: 20 * time.Minute},
		{name: "zero override supersedes default", overrides: []*int{ptr.Ptr(0)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := make([]*domain.Service, len(tt.overrides))
			for i, o := range tt.overrides {
				services[i] = service(int64(i+1), 30)
				services[i].BufferMinutesOverride = o
			}
			assert.Equal(t, tt.want, RequiredBuffer(sp, services))
		})
	}
}

func TestAdmissible(t *testing.T) {
	sp := moscowSpecialist()
	services := []*domain.Service{service(10, 30)}
	now := at(8, 0)

	tests := []struct {
		name  string
		start time.Time
		err   error
	}{
		{name: "first slot", start: at(9, 0)},
		{name: "last slot", start: at(16, 30)},
		{name: "off grid", start: at(9, 10), err: ErrOffGrid},
		{name: "before lead time", start: at(8, 30), err: ErrBeforeLeadTime},
		{name: "in the past", start: at(10, 0).Add(-24 * time.Hour), err: ErrBeforeLeadTime},
		{name: "runs past closing", start: at(16, 45), err: ErrOffGrid},
		{name: "day off", start: at(10, 0).Add(6 * 24 * time.Hour), err: ErrOffGrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Admissible(sp, services, tt.start, now)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAdmissible_BeforeOpening(t *testing.T) {
	err := Admissible(moscowSpecialist(), []*domain.Service{service(10, 30)}, at(8, 30), at(6, 0))
	assert.ErrorIs(t, err, ErrOffGrid)
}

func TestConflicts(t *testing.T) {
	b := &domain.Booking{StartUTC: at(10, 0), EndUTC: at(10, 30), BufferMinutes: 15, Status: domain.StatusConfirmed}

	assert.Nil(t, Conflicts(at(9, 0), at(9, 45), 15*time.Minute, []*domain.Booking{b}), "touching windows do not overlap")
	assert.Same(t, b, Conflicts(at(10, 30), at(11, 0), 0, []*domain.Booking{b}), "buffer of the existing booking blocks")
	assert.Nil(t, Conflicts(at(10, 45), at(11, 15), 0, []*domain.Booking{b}))
}

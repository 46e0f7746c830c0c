package memory

import (
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

// SeedDemo наполняет справочник демонстрационными данными для запуска
// без базы данных
func SeedDemo(s *Store) error {
	catalog := s.Catalog()

	weekdays := domain.WorkingHours{}
	for day := time.Monday; day <= time.Friday; day++ {
		weekdays[day] = []domain.TimeRange{{Open: "09:00", Close: "17:00"}}
	}

	specialists := []*domain.Specialist{
		{
			ID:                   1,
			Name:                 "Dr. Ivanova",
			SlotDurationMinutes:  30,
			BufferMinutesDefault: 15,
			MinLeadMinutes:       60,
			TZID:                 "Europe/Moscow",
			WorkingHours:         weekdays,
		},
		{
			ID:                   2,
			Name:                 "Dr. Petrov",
			SlotDurationMinutes:  15,
			BufferMinutesDefault: 0,
			MinLeadMinutes:       30,
			TZID:                 "Europe/Moscow",
			WorkingHours: domain.WorkingHours{
				time.Monday:    {{Open: "08:00", Close: "12:00"}, {Open: "13:00", Close: "20:00"}},
				time.Wednesday: {{Open: "08:00", Close: "12:00"}, {Open: "13:00", Close: "20:00"}},
				time.Saturday:  {{Open: "10:00", Close: "14:00"}},
			},
		},
	}
	for _, sp := range specialists {
		if err := catalog.AddSpecialist(sp); err != nil {
			return err
		}
	}

	catalog.AddService(&domain.Service{ID: 1, CategoryID: 1, Name: "Consultation", DurationMinutes: 30, PriceCents: 300000, Currency: "RUB"})
	catalog.AddService(&domain.Service{ID: 2, CategoryID: 1, Name: "Extended examination", DurationMinutes: 45, PriceCents: 450000, Currency: "RUB"})
	catalog.AddService(&domain.Service{ID: 3, CategoryID: 2, Name: "Ultrasound", DurationMinutes: 20, BufferMinutesOverride: ptr.Ptr(10), PriceCents: 250000, Currency: "RUB"})

	catalog.Link(1, 1, 2, 3)
	catalog.Link(2, 1, 3)

	return nil
}

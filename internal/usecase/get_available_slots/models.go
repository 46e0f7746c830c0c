package get_available_slots

import (
	"cloud.google.com/go/civil"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	SpecialistID int64      // ID специалиста
	ServiceIDs   []int64    // Услуги подряд, в порядке выбора
	Date         civil.Date // Дата в часовом поясе специалиста
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            civil.Date
	SpecialistID    int64
	ServiceIDs      []int64
	TZID            string
	DurationMinutes int // суммарная длительность услуг
	BufferMinutes   int
	Slots           []domain.Slot
}

package get_available_slots

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/calendar"
	getAvailableSlots "github.com/m04kA/SMC-ClinicBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ClinicBooking/pkg/types"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string          `json:"date"`
	SpecialistID    int64           `json:"specialistId"`
	ServiceIDs      []int64         `json:"serviceIds"`
	Timezone        string          `json:"timezone"`
	DurationMinutes int             `json:"durationMinutes"`
	BufferMinutes   int             `json:"bufferMinutes"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartUTC   string `json:"startUtc"`
	EndUTC     string `json:"endUtc"`
	StartLocal string `json:"startLocal"` // "HH:MM" в часовом поясе специалиста
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartUTC:   slot.Start.UTC().Format(time.RFC3339),
			EndUTC:     slot.End.UTC().Format(time.RFC3339),
			StartLocal: localClock(resp.TZID, slot.Start),
		}
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date.String(),
		SpecialistID:    resp.SpecialistID,
		ServiceIDs:      resp.ServiceIDs,
		Timezone:        resp.TZID,
		DurationMinutes: resp.DurationMinutes,
		BufferMinutes:   resp.BufferMinutes,
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(specialistID int64, serviceIDsStr, dateStr string) (*getAvailableSlots.Request, error) {
	serviceIDs, err := handlers.ParseIDList(serviceIDsStr)
	if err != nil {
		return nil, err
	}

	// Парсим дату
	date, err := civil.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		SpecialistID: specialistID,
		ServiceIDs:   serviceIDs,
		Date:         date,
	}, nil
}

func localClock(tzid string, t time.Time) string {
	loc, err := calendar.Location(tzid)
	if err != nil {
		return ""
	}
	return types.NewTimeString(t.In(loc)).String()
}

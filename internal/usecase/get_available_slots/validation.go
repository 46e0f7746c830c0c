package get_available_slots

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SpecialistID <= 0 {
		return fmt.Errorf("%w: specialistID must be positive", ErrInvalidInput)
	}

	if len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}

	if len(req.ServiceIDs) > domain.MaxServicesPerBooking {
		return fmt.Errorf("%w: at most %d services per booking", ErrInvalidInput, domain.MaxServicesPerBooking)
	}

	seen := make(map[int64]struct{}, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		if id <= 0 {
			return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: service %d selected twice", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if !req.Date.IsValid() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}

// validateLinked проверяет, что специалист выполняет каждую из услуг
func validateLinked(linked []int64, serviceIDs []int64) error {
	set := make(map[int64]struct{}, len(linked))
	for _, id := range linked {
		set[id] = struct{}{}
	}
	for _, id := range serviceIDs {
		if _, ok := set[id]; !ok {
			return fmt.Errorf("%w: service id=%d", ErrSpecialistNotLinked, id)
		}
	}
	return nil
}

// validateDate проверяет, что дата подходит для бронирования.
// today: текущая дата в часовом поясе специалиста.
func validateDate(date, today civil.Date, advanceBookingDays int) error {
	// Проверяем, что дата не в прошлом
	if date.Before(today) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}

	// Если advanceBookingDays = 0, нет ограничений на дату
	if advanceBookingDays <= 0 {
		return nil
	}

	if date.After(today.AddDays(advanceBookingDays)) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

// advanceLimit сужает ограничение политики горизонтом сервиса; 0 = без ограничения
func advanceLimit(policyDays, maxHorizonDays int) int {
	switch {
	case maxHorizonDays <= 0:
		return policyDays
	case policyDays <= 0 || maxHorizonDays < policyDays:
		return maxHorizonDays
	default:
		return policyDays
	}
}

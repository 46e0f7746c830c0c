package create_booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ClinicBooking/internal/calendar"
	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/slots"
)

// emailRule совпадает с тегом Contact.Email в guest_booking
const emailRule = "required,email,max=254"

var validate = validator.New(validator.WithRequiredStructEnabled())

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

	if req.StartUTC.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.Client.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}

	if utf8.RuneCountInString(req.Client.Name) > domain.MaxClientNameLength {
		return fmt.Errorf("%w: client name is too long", ErrInvalidInput)
	}

	if err := validate.Var(req.Client.Email, emailRule); err != nil {
		return fmt.Errorf("%w: invalid client email", ErrInvalidInput)
	}

	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, domain.MaxNoteLength)
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

// validateAdmissible проверяет, что начало могло быть выдано генератором слотов
func validateAdmissible(sp *domain.Specialist, services []*domain.Service, start, now time.Time) error {
	err := slots.Admissible(sp, services, start, now)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, slots.ErrBeforeLeadTime):
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, sp.MinLeadMinutes)
	case errors.Is(err, slots.ErrOffGrid):
		return fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	case errors.Is(err, slots.ErrNoServices), errors.Is(err, slots.ErrInvalidServiceDuration):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: admissibility check: %v", ErrInternal, err)
	}
}

// validateAdvance проверяет ограничение advanceBookingDays.
// Граница считается по гражданским датам в часовом поясе специалиста.
func validateAdvance(sp *domain.Specialist, start, now time.Time, advanceBookingDays int) error {
	if advanceBookingDays <= 0 {
		return nil
	}

	loc, err := calendar.Location(sp.TZID)
	if err != nil {
		return fmt.Errorf("%w: load timezone %q: %v", ErrInternal, sp.TZID, err)
	}

	today := now.In(loc)
	maxDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, advanceBookingDays+1)

	if !start.Before(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

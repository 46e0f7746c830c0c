package create_booking

import "errors"

var (
	// ErrSpecialistNotFound возвращается, когда специалист не найден
	ErrSpecialistNotFound = errors.New("create_booking: specialist not found")

	// ErrServiceNotFound возвращается, когда хотя бы одна услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrSpecialistNotLinked возвращается, когда специалист не выполняет выбранную услугу
	ErrSpecialistNotLinked = errors.New("create_booking: specialist does not perform the service")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("create_booking: date is too far in the future")

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с другим бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidTimeSlot возвращается, когда начало не совпадает со слотом сетки
	// или интервал не помещается в рабочие часы
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrTooLateToBook возвращается, когда начало раньше now + minLead
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

package get_available_slots

import "errors"

var (
	// ErrSpecialistNotFound возвращается, когда специалист не найден
	ErrSpecialistNotFound = errors.New("get_available_slots: specialist not found")

	// ErrServiceNotFound возвращается, когда хотя бы одна услуга не найдена
	ErrServiceNotFound = errors.New("get_available_slots: service not found")

	// ErrSpecialistNotLinked возвращается, когда специалист не выполняет выбранную услугу
	ErrSpecialistNotLinked = errors.New("get_available_slots: specialist does not perform the service")

	// ErrInvalidDate возвращается, когда дата в прошлом
	ErrInvalidDate = errors.New("get_available_slots: invalid date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение advanceBookingDays
	ErrDateTooFarInFuture = errors.New("get_available_slots: date is too far in the future")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)

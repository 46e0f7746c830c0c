package guest_booking

import "errors"

var (
	// ErrSpecialistNotFound возвращается, когда специалист не найден
	ErrSpecialistNotFound = errors.New("guest_booking: specialist not found")

	// ErrServiceNotFound возвращается, когда хотя бы одна услуга не найдена
	ErrServiceNotFound = errors.New("guest_booking: service not found")

	// ErrSpecialistNotLinked возвращается, когда специалист не выполняет все выбранные услуги
	ErrSpecialistNotLinked = errors.New("guest_booking: specialist does not perform every selected service")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("guest_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("guest_booking: internal error")
)

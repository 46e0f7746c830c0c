package policy

import "errors"

var (
	// ErrSpecialistNotFound возвращается, когда специалист не найден
	ErrSpecialistNotFound = errors.New("specialist not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("service not found")

	// ErrPolicyConflict возвращается, когда политику с тем же ключом создали параллельно
	ErrPolicyConflict = errors.New("policy was modified concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)

package resolve_selection

import "errors"

var (
	// ErrServiceNotFound возвращается, когда хотя бы одна услуга не найдена
	ErrServiceNotFound = errors.New("resolve_selection: service not found")

	// ErrCurrencyMismatch возвращается, когда услуги оценены в разных валютах
	ErrCurrencyMismatch = errors.New("resolve_selection: services are priced in different currencies")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("resolve_selection: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("resolve_selection: internal error")
)

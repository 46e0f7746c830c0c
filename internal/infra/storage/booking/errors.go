package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с другим бронированием
	// (нарушение exclusion constraint или ошибка сериализации)
	ErrSlotNotAvailable = errors.New("booking.repository: slot not available")

	// ErrNotInTransaction возвращается, когда блокировка запрошена вне транзакции
	ErrNotInTransaction = errors.New("booking.repository: operation requires a transaction")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")

	// ErrNoItems возвращается при попытке сохранить бронирование без услуг
	ErrNoItems = errors.New("booking.repository: booking has no items")
)

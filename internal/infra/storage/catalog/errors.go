package catalog

import "errors"

var (
	// ErrSpecialistNotFound возвращается, когда специалист не найден
	ErrSpecialistNotFound = errors.New("catalog.repository: specialist not found")

	// ErrServiceNotFound возвращается, когда хотя бы одна из услуг не найдена
	ErrServiceNotFound = errors.New("catalog.repository: service not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)

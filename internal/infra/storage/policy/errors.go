package policy

import "errors"

var (
	// ErrPolicyNotFound возвращается, когда политика не найдена
	ErrPolicyNotFound = errors.New("policy.repository: policy not found")

	// ErrDuplicatePolicy возвращается при попытке создать вторую политику с тем же ключом
	ErrDuplicatePolicy = errors.New("policy.repository: duplicate policy for specialist and service")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("policy.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("policy.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("policy.repository: failed to scan row")
)

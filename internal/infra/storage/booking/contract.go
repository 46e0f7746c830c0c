package booking

import (
	"github.com/m04kA/SMC-ClinicBooking/pkg/dbmetrics"
)

// Переиспользуем интерфейс из dbmetrics для работы с БД
// Поддерживает *dbmetrics.DB и открытую транзакцию из контекста
type DBExecutor = dbmetrics.DBExecutor

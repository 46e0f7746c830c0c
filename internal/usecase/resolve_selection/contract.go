package resolve_selection

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// CatalogRepository интерфейс справочника специалистов и услуг
type CatalogRepository interface {
	GetServices(ctx context.Context, ids []int64) ([]*domain.Service, error)
	SpecialistsLinkedToAll(ctx context.Context, serviceIDs []int64) ([]*domain.Specialist, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

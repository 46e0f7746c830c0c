package guest_booking

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
)

// SelectionResolver разрешает выбор услуг в пересечение специалистов
type SelectionResolver interface {
	Execute(ctx context.Context, req *resolve_selection.Request) (*resolve_selection.Response, error)
}

// BookingCreator резервирует интервал у специалиста
type BookingCreator interface {
	Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error)
}

// CatalogRepository интерфейс справочника специалистов
type CatalogRepository interface {
	GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

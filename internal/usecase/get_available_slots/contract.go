package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetBySpecialistWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// CatalogRepository интерфейс справочника специалистов и услуг
type CatalogRepository interface {
	GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error)
	GetServices(ctx context.Context, ids []int64) ([]*domain.Service, error)
	LinkedServiceIDs(ctx context.Context, specialistID int64) ([]int64, error)
}

// PolicyRepository интерфейс репозитория политик бронирования
type PolicyRepository interface {
	GetPolicyWithHierarchy(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error)
}

// Metrics считает выданные слоты
type Metrics interface {
	ObserveSlotsListed(count int)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetBySpecialistWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	LockSpecialist(ctx context.Context, specialistID int64) error
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

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier публикует события бронирований
type Notifier interface {
	Publish(ctx context.Context, event notifier.Event) error
}

// Metrics считает исходы резервирований
type Metrics interface {
	ObserveReservation(outcome string)
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

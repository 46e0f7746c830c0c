package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetBySpecialistWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error
}

// CatalogRepository интерфейс справочника специалистов
type CatalogRepository interface {
	GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier публикует события бронирований
type Notifier interface {
	Publish(ctx context.Context, event notifier.Event) error
}

// Metrics считает применённые переходы
type Metrics interface {
	ObserveTransition(kind, to string)
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

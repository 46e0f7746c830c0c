package policy

import (
	"context"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// PolicyRepository интерфейс репозитория политик бронирования
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
	GetBySpecialistAndService(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error)
	GetPolicyWithHierarchy(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error)
	GetAll(ctx context.Context) ([]*domain.BookingPolicy, error)
	Update(ctx context.Context, id int64, policy *domain.BookingPolicy) (*domain.BookingPolicy, error)
}

// CatalogRepository интерфейс справочника специалистов и услуг
type CatalogRepository interface {
	GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error)
	GetServices(ctx context.Context, ids []int64) ([]*domain.Service, error)
	LinkedServiceIDs(ctx context.Context, specialistID int64) ([]int64, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

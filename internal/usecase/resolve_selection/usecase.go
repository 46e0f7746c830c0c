package resolve_selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ClinicBooking/internal/slots"
)

// UseCase use case разрешения выбора гостя в входные данные генератора слотов
type UseCase struct {
	catalogRepo CatalogRepository
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(catalogRepo CatalogRepository, logger Logger) *UseCase {
	return &UseCase{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// Execute возвращает специалистов, выполняющих все выбранные услуги,
// и суммарные цену и длительность. Пустое пересечение не является ошибкой.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ResolveSelection: services=%v", req.ServiceIDs)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ResolveSelection: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услуги в порядке выбора
	services, err := uc.catalogRepo.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("ResolveSelection: services %v not found: %v", req.ServiceIDs, err)
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		}
		uc.logger.Error("ResolveSelection: failed to get services %v: %v", req.ServiceIDs, err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}

	// 3. Суммируем цену в одной валюте
	currency := services[0].Currency
	var total int64
	for _, s := range services {
		if s.Currency != currency {
			uc.logger.Warn("ResolveSelection: service id=%d is priced in %s, expected %s", s.ID, s.Currency, currency)
			return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, currency, s.Currency)
		}
		total += s.PriceCents
	}

	// 4. Получаем специалистов, связанных со всеми услугами
	specialists, err := uc.catalogRepo.SpecialistsLinkedToAll(ctx, req.ServiceIDs)
	if err != nil {
		uc.logger.Error("ResolveSelection: failed to get specialists: %v", err)
		return nil, fmt.Errorf("%w: failed to get specialists: %v", ErrInternal, err)
	}

	uc.logger.Info("ResolveSelection: %d specialists perform all of %v", len(specialists), req.ServiceIDs)

	return &Response{
		Services:             services,
		Specialists:          specialists,
		TotalPriceCents:      total,
		Currency:             currency,
		TotalDurationMinutes: int(slots.RequiredDuration(services) / time.Minute),
	}, nil
}

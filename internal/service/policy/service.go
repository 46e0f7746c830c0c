package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	policyRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

// Service сервис для работы с политиками бронирования и конфигурацией специалистов
type Service struct {
	policyRepo  PolicyRepository
	catalogRepo CatalogRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса политик
func NewService(
	policyRepo PolicyRepository,
	catalogRepo CatalogRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		policyRepo:  policyRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetAll получает все политики клиники, глобальная идет первой
func (s *Service) GetAll(ctx context.Context) (*models.PolicyListResponse, error) {
	s.logger.Info("GetAll: fetching booking policies")

	policies, err := s.policyRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("GetAll: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetAll - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetAll: successfully fetched %d policies", len(policies))
	return models.FromDomainPolicyList(policies), nil
}

// GetEffective получает действующую политику с учетом иерархии приоритетов:
// specialist+service > specialist > service > global > значения по умолчанию
func (s *Service) GetEffective(ctx context.Context, req *models.GetPolicyRequest) (*models.PolicyResponse, error) {
	s.logger.Info("GetEffective: fetching policy for specialist=%v, service=%v",
		req.SpecialistID, req.ServiceID)

	p, err := s.effective(ctx, req.SpecialistID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainPolicy(p)
	s.logger.Info("GetEffective: resolved policy id=%d (level: %s)", p.ID, resp.Level)
	return resp, nil
}

// Upsert создает политику для ключа (specialist, service) или заменяет ее правила.
// Возвращает true, если политика создана.
func (s *Service) Upsert(ctx context.Context, req *models.UpsertPolicyRequest) (*models.PolicyResponse, bool, error) {
	s.logger.Info("Upsert: policy for specialist=%v, service=%v: requireConfirmation=%t, advanceBookingDays=%d",
		req.SpecialistID, req.ServiceID, req.RequireConfirmation, req.AdvanceBookingDays)

	// 1. Валидируем входные данные
	if err := validatePolicyData(req); err != nil {
		s.logger.Warn("Upsert: validation failed: %v", err)
		return nil, false, err
	}

	// 2. Проверяем существование специалиста и услуги из ключа
	if err := s.checkKey(ctx, req.SpecialistID, req.ServiceID); err != nil {
		return nil, false, err
	}

	var (
		result  *domain.BookingPolicy
		created bool
	)

	// 3. Создаем или обновляем политику в транзакции
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		existing, err := s.policyRepo.GetBySpecialistAndService(txCtx, req.SpecialistID, req.ServiceID)
		if err != nil && !errors.Is(err, policyRepo.ErrPolicyNotFound) {
			s.logger.Error("Upsert: failed to check existing policy: %v", err)
			return fmt.Errorf("%w: Upsert - failed to check existing policy: %v", ErrInternal, err)
		}

		if existing != nil {
			result, err = s.policyRepo.Update(txCtx, existing.ID, req.ToDomainPolicy())
			if err != nil {
				s.logger.Error("Upsert: failed to update policy id=%d: %v", existing.ID, err)
				return fmt.Errorf("%w: Upsert - update: %v", ErrInternal, err)
			}
			return nil
		}

		result, err = s.policyRepo.Create(txCtx, req.ToDomainPolicy())
		if err != nil {
			if errors.Is(err, policyRepo.ErrDuplicatePolicy) {
				s.logger.Warn("Upsert: policy for specialist=%v, service=%v was created concurrently",
					req.SpecialistID, req.ServiceID)
				return ErrPolicyConflict
			}
			s.logger.Error("Upsert: failed to create policy: %v", err)
			return fmt.Errorf("%w: Upsert - create: %v", ErrInternal, err)
		}
		created = true
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrPolicyConflict) || errors.Is(err, ErrInternal) {
			return nil, false, err
		}
		s.logger.Error("Upsert: transaction failed: %v", err)
		return nil, false, fmt.Errorf("%w: Upsert - transaction: %v", ErrInternal, err)
	}

	s.logger.Info("Upsert: successfully saved policy id=%d (created: %t)", result.ID, created)
	return models.FromDomainPolicy(result), created, nil
}

// GetSpecialistConfig получает настройки специалиста: сетку, буфер, упреждение,
// рабочие часы, выполняемые услуги и действующую политику уровня специалиста
func (s *Service) GetSpecialistConfig(ctx context.Context, specialistID int64) (*models.SpecialistConfigResponse, error) {
	s.logger.Info("GetSpecialistConfig: fetching config for specialist=%d", specialistID)

	specialist, err := s.catalogRepo.GetSpecialist(ctx, specialistID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
			s.logger.Warn("GetSpecialistConfig: specialist id=%d not found", specialistID)
			return nil, ErrSpecialistNotFound
		}
		s.logger.Error("GetSpecialistConfig: failed to get specialist id=%d: %v", specialistID, err)
		return nil, fmt.Errorf("%w: GetSpecialistConfig - failed to get specialist: %v", ErrInternal, err)
	}

	serviceIDs, err := s.catalogRepo.LinkedServiceIDs(ctx, specialistID)
	if err != nil {
		s.logger.Error("GetSpecialistConfig: failed to get linked services: %v", err)
		return nil, fmt.Errorf("%w: GetSpecialistConfig - failed to get linked services: %v", ErrInternal, err)
	}

	p, err := s.effective(ctx, &specialistID, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetSpecialistConfig: successfully fetched config for specialist=%d", specialistID)
	return models.FromDomainSpecialist(specialist, serviceIDs, p), nil
}

// Вспомогательные методы

// effective возвращает политику по иерархии или значения по умолчанию
func (s *Service) effective(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error) {
	p, err := s.policyRepo.GetPolicyWithHierarchy(ctx, specialistID, serviceID)
	if err != nil {
		if errors.Is(err, policyRepo.ErrPolicyNotFound) {
			return domain.DefaultBookingPolicy(), nil
		}
		s.logger.Error("effective: repository error: %v", err)
		return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
	}
	return p, nil
}

// checkKey проверяет, что специалист и услуга из ключа существуют
func (s *Service) checkKey(ctx context.Context, specialistID, serviceID *int64) error {
	if specialistID != nil {
		if _, err := s.catalogRepo.GetSpecialist(ctx, *specialistID); err != nil {
			if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
				s.logger.Warn("checkKey: specialist id=%d not found", *specialistID)
				return ErrSpecialistNotFound
			}
			return fmt.Errorf("%w: checkKey - failed to get specialist: %v", ErrInternal, err)
		}
	}

	if serviceID != nil {
		if _, err := s.catalogRepo.GetServices(ctx, []int64{*serviceID}); err != nil {
			if errors.Is(err, catalogRepo.ErrServiceNotFound) {
				s.logger.Warn("checkKey: service id=%d not found", *serviceID)
				return ErrServiceNotFound
			}
			return fmt.Errorf("%w: checkKey - failed to get service: %v", ErrInternal, err)
		}
	}

	return nil
}

// validatePolicyData валидирует параметры политики
func validatePolicyData(req *models.UpsertPolicyRequest) error {
	if req.SpecialistID != nil && *req.SpecialistID <= 0 {
		return fmt.Errorf("%w: specialistId must be positive", ErrInvalidInput)
	}

	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", ErrInvalidInput)
	}

	// Проверяем advanceBookingDays
	if req.AdvanceBookingDays < 0 || req.AdvanceBookingDays > domain.MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advanceBookingDays must be between 0 and %d", ErrInvalidInput, domain.MaxAdvanceBookingDays)
	}

	return nil
}

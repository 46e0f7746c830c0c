package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/calendar"
	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	policyRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
	"github.com/m04kA/SMC-ClinicBooking/internal/slots"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo    BookingRepository
	catalogRepo    CatalogRepository
	policyRepo     PolicyRepository
	metrics        Metrics
	maxHorizonDays int
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case.
// maxHorizonDays ограничивает дату сверху, даже если политика не ограничивает; 0 = без ограничения.
func NewUseCase(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	policyRepo PolicyRepository,
	metrics Metrics,
	maxHorizonDays int,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:    bookingRepo,
		catalogRepo:    catalogRepo,
		policyRepo:     policyRepo,
		metrics:        metrics,
		maxHorizonDays: maxHorizonDays,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: specialist=%d, services=%v, date=%s",
		req.SpecialistID, req.ServiceIDs, req.Date)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем специалиста
	specialist, err := uc.catalogRepo.GetSpecialist(ctx, req.SpecialistID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
			uc.logger.Warn("GetAvailableSlots: specialist id=%d not found", req.SpecialistID)
			return nil, ErrSpecialistNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get specialist id=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: failed to get specialist: %v", ErrInternal, err)
	}

	// 4. Получаем услуги в порядке выбора
	services, err := uc.catalogRepo.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: services %v not found: %v", req.ServiceIDs, err)
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		}
		uc.logger.Error("GetAvailableSlots: failed to get services %v: %v", req.ServiceIDs, err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}

	// 5. Проверяем, что специалист выполняет каждую услугу
	linked, err := uc.catalogRepo.LinkedServiceIDs(ctx, req.SpecialistID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get linked services of specialist id=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: failed to get linked services: %v", ErrInternal, err)
	}
	if err := validateLinked(linked, req.ServiceIDs); err != nil {
		uc.logger.Warn("GetAvailableSlots: specialist id=%d is not linked: %v", req.SpecialistID, err)
		return nil, err
	}

	// 6. Получаем политику с учетом иерархии для всех услуг
	policy, err := uc.resolvePolicy(ctx, specialist.ID, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	// 7. Валидация даты в часовом поясе специалиста
	today, err := calendar.DateOf(specialist.TZID, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: specialist id=%d has bad timezone: %v", specialist.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := validateDate(req.Date, today, advanceLimit(policy.AdvanceBookingDays, uc.maxHorizonDays)); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	// 8. Получаем занимающие бронирования, задевающие сутки с учетом буфера
	day, err := calendar.DayBoundsUTC(specialist.TZID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	buffer := slots.RequiredBuffer(specialist, services)
	from := day.Start
	to := day.End.Add(buffer)

	bookings, err := uc.bookingRepo.GetBySpecialistWithFilter(ctx, domain.BookingsFilter{
		SpecialistID: specialist.ID,
		From:         &from,
		To:           &to,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 9. Генерируем свободные слоты
	result, err := slots.Generate(slots.Input{
		Specialist: specialist,
		Services:   services,
		Date:       req.Date,
		Now:        now,
		Existing:   bookings,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
	}

	uc.metrics.ObserveSlotsListed(len(result))
	uc.logger.Info("GetAvailableSlots: generated %d slots for specialist=%d, date=%s",
		len(result), specialist.ID, req.Date)

	return &Response{
		Date:            req.Date,
		SpecialistID:    specialist.ID,
		ServiceIDs:      req.ServiceIDs,
		TZID:            specialist.TZID,
		DurationMinutes: int(slots.RequiredDuration(services) / time.Minute),
		BufferMinutes:   int(buffer / time.Minute),
		Slots:           result,
	}, nil
}

// resolvePolicy объединяет политики всех выбранных услуг
func (uc *UseCase) resolvePolicy(ctx context.Context, specialistID int64, serviceIDs []int64) (*domain.BookingPolicy, error) {
	policies := make([]*domain.BookingPolicy, 0, len(serviceIDs))
	for _, serviceID := range serviceIDs {
		serviceID := serviceID
		p, err := uc.policyRepo.GetPolicyWithHierarchy(ctx, &specialistID, &serviceID)
		if err != nil {
			if errors.Is(err, policyRepo.ErrPolicyNotFound) {
				continue
			}
			uc.logger.Error("GetAvailableSlots: failed to get policy for service id=%d: %v", serviceID, err)
			return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
		}
		policies = append(policies, p)
	}
	return domain.MergePolicies(policies), nil
}

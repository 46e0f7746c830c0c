package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	policyRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	"github.com/m04kA/SMC-ClinicBooking/internal/slots"
	"github.com/m04kA/SMC-ClinicBooking/internal/statemachine"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
)

// UseCase use case резервирования интервала у специалиста
type UseCase struct {
	bookingRepo  BookingRepository
	catalogRepo  CatalogRepository
	policyRepo   PolicyRepository
	txManager    TransactionManager
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	policyRepo PolicyRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		catalogRepo:  catalogRepo,
		policyRepo:   policyRepo,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute резервирует [start, start+Σduration) у специалиста.
// Проверка пересечений и вставка выполняются в сериализуемой транзакции под
// блокировкой специалиста, поэтому из двух конкурирующих запросов на
// пересекающиеся интервалы успешен ровно один.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: specialist=%d, services=%v, start=%s",
		req.SpecialistID, req.ServiceIDs, req.StartUTC.UTC().Format(time.RFC3339))

	resp, err := uc.execute(ctx, req)
	uc.metrics.ObserveReservation(outcomeOf(err))
	return resp, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	start := req.StartUTC.UTC()

	// 3. Получаем специалиста
	specialist, err := uc.catalogRepo.GetSpecialist(ctx, req.SpecialistID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
			uc.logger.Warn("CreateBooking: specialist id=%d not found", req.SpecialistID)
			return nil, ErrSpecialistNotFound
		}
		uc.logger.Error("CreateBooking: failed to get specialist id=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: failed to get specialist: %v", ErrInternal, err)
	}

	// 4. Получаем услуги в порядке выбора
	services, err := uc.catalogRepo.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: services %v not found: %v", req.ServiceIDs, err)
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		}
		uc.logger.Error("CreateBooking: failed to get services %v: %v", req.ServiceIDs, err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}

	// 5. Проверяем, что специалист выполняет каждую услугу
	linked, err := uc.catalogRepo.LinkedServiceIDs(ctx, req.SpecialistID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get linked services of specialist id=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: failed to get linked services: %v", ErrInternal, err)
	}
	if err := validateLinked(linked, req.ServiceIDs); err != nil {
		uc.logger.Warn("CreateBooking: specialist id=%d is not linked: %v", req.SpecialistID, err)
		return nil, err
	}

	// 6. Проверяем, что начало совпадает со слотом генератора
	if err := validateAdmissible(specialist, services, start, now); err != nil {
		uc.logger.Warn("CreateBooking: start %s is not admissible: %v", start.Format(time.RFC3339), err)
		return nil, err
	}

	booking, err := newBooking(specialist, services, start, req)
	if err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	// Переменная для хранения результата
	var result *domain.Booking

	// 7. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 7.1. Получаем политику с учетом иерархии для всех услуг
		policy, err := uc.resolvePolicy(txCtx, specialist.ID, req.ServiceIDs)
		if err != nil {
			return err
		}

		// 7.2. Проверяем ограничение advanceBookingDays
		if err := validateAdvance(specialist, start, now, policy.AdvanceBookingDays); err != nil {
			uc.logger.Warn("CreateBooking: advance check failed: %v", err)
			return err
		}

		// 7.3. Блокируем специалиста до конца транзакции
		if err := uc.bookingRepo.LockSpecialist(txCtx, specialist.ID); err != nil {
			if lostRace(err) {
				uc.logger.Warn("CreateBooking: lost the race on lock for specialist id=%d: %v", specialist.ID, err)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateBooking: failed to lock specialist id=%d: %v", specialist.ID, err)
			return fmt.Errorf("%w: failed to lock specialist: %v", ErrInternal, err)
		}

		// 7.4. Получаем занимающие бронирования, пересекающие интервал с буфером (FOR UPDATE)
		from := booking.StartUTC
		to := booking.OccupiedUntil()
		existing, err := uc.bookingRepo.GetBySpecialistWithFilter(txCtx, domain.BookingsFilter{
			SpecialistID: specialist.ID,
			From:         &from,
			To:           &to,
		})
		if err != nil {
			if lostRace(err) {
				uc.logger.Warn("CreateBooking: lost the race on re-check for specialist id=%d: %v", specialist.ID, err)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 7.5. Проверяем пересечения
		if conflict := slots.Conflicts(booking.StartUTC, booking.EndUTC,
			time.Duration(booking.BufferMinutes)*time.Minute, existing); conflict != nil {
			uc.logger.Warn("CreateBooking: interval overlaps booking id=%d", conflict.ID)
			return ErrSlotNotAvailable
		}

		// 7.6. Начальные статусы зависят от политики
		booking.Status = statemachine.InitialStatus(policy.RequireConfirmation)
		booking.PaymentStatus = statemachine.InitialPaymentStatus()

		// 7.7. Сохраняем бронирование вместе с позициями
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if lostRace(err) {
				uc.logger.Warn("CreateBooking: lost the race for specialist id=%d: %v", specialist.ID, err)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		// Ошибка сериализации при коммите приходит из txManager
		if lostRace(err) {
			uc.logger.Warn("CreateBooking: serialization conflict for specialist id=%d: %v", specialist.ID, err)
			return nil, ErrSlotNotAvailable
		}
		if errors.Is(err, ErrSlotNotAvailable) || errors.Is(err, ErrDateTooFarInFuture) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, status=%s", result.ID, result.Status)

	// 8. Публикуем событие; ошибка не отменяет резервирование
	if err := uc.notifier.Publish(ctx, notifier.NewEvent(notifier.EventBookingCreated, result, now)); err != nil {
		uc.logger.Error("CreateBooking: failed to publish event for booking id=%d: %v", result.ID, err)
	}

	return fromDomain(result), nil
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
			uc.logger.Error("CreateBooking: failed to get policy for service id=%d: %v", serviceID, err)
			return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
		}
		policies = append(policies, p)
	}
	return domain.MergePolicies(policies), nil
}

// newBooking строит бронирование с денормализованными позициями
func newBooking(sp *domain.Specialist, services []*domain.Service, start time.Time, req *Request) (*domain.Booking, error) {
	items := make([]domain.BookingItem, len(services))
	var price int64
	currency := services[0].Currency
	for i, s := range services {
		if s.Currency != currency {
			return nil, fmt.Errorf("%w: services are priced in %s and %s", ErrInvalidInput, currency, s.Currency)
		}
		items[i] = s.ToItem()
		price += s.PriceCents
	}

	return &domain.Booking{
		SpecialistID:  sp.ID,
		ServiceID:     services[0].ID,
		Items:         items,
		StartUTC:      start,
		EndUTC:        start.Add(slots.RequiredDuration(services)),
		BufferMinutes: int(slots.RequiredBuffer(sp, services) / time.Minute),
		Client:        req.Client,
		PriceCents:    price,
		Currency:      currency,
		Note:          req.Note,
	}, nil
}

// lostRace распознаёт ошибки хранилища, означающие проигранную гонку за интервал
func lostRace(err error) bool {
	return errors.Is(err, bookingRepo.ErrSlotNotAvailable) || bookingRepo.IsConflict(err)
}

// outcomeOf переводит результат резервирования в метку метрики
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case errors.Is(err, ErrSlotNotAvailable):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrSpecialistNotLinked):
		return metrics.OutcomeNotLinked
	case errors.Is(err, ErrInternal):
		return metrics.OutcomeInternalError
	default:
		return metrics.OutcomeInvalid
	}
}

package bookings

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-ClinicBooking/internal/statemachine"
)

const (
	kindStatus  = "status"
	kindPayment = "payment"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	catalogRepo  CatalogRepository
	txManager    TransactionManager
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		catalogRepo:  catalogRepo,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// ListBySpecialist получает бронирования специалиста с фильтрацией по окну,
// статусу и включению неактивных бронирований.
// Без includeInactive возвращаются только занимающие время статусы.
func (s *Service) ListBySpecialist(ctx context.Context, req *models.ListBySpecialistRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListBySpecialist: fetching bookings for specialist=%d, status=%v, includeInactive=%t",
		req.SpecialistID, req.Status, req.IncludeInactive)

	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		s.logger.Warn("ListBySpecialist: from=%s is not before to=%s", req.From, req.To)
		return nil, ErrInvalidTimeRange
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListBySpecialist: invalid filter for specialist=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Проверяем, что специалист существует
	if _, err := s.catalogRepo.GetSpecialist(ctx, req.SpecialistID); err != nil {
		if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
			s.logger.Warn("ListBySpecialist: specialist id=%d not found", req.SpecialistID)
			return nil, ErrSpecialistNotFound
		}
		s.logger.Error("ListBySpecialist: failed to get specialist id=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: ListBySpecialist - failed to get specialist: %v", ErrInternal, err)
	}

	bookings, err := s.bookingRepo.GetBySpecialistWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListBySpecialist: repository error for specialist=%d: %v", req.SpecialistID, err)
		return nil, fmt.Errorf("%w: ListBySpecialist - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListBySpecialist: successfully fetched %d bookings for specialist=%d", len(bookings), req.SpecialistID)
	return models.FromDomainBookingList(bookings), nil
}

// Transition переводит бронирование в запрошенный статус.
// Повторный запрос текущего статуса ничего не меняет.
func (s *Service) Transition(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("Transition: booking id=%d to status=%s", id, req.Status)

	requested, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("Transition: invalid status=%s for booking id=%d", req.Status, id)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if requested == domain.StatusCanceled {
		return s.cancel(ctx, "Transition", id, nil)
	}

	ch, err := s.mutate(ctx, "Transition", id, func(txCtx context.Context, b *domain.Booking) (bool, error) {
		next, err := statemachine.Apply(b.Status, requested)
		if err != nil {
			return false, err
		}
		if next == b.Status {
			return false, nil
		}
		return true, s.bookingRepo.UpdateStatus(txCtx, id, next)
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, "Transition", ch)
	return models.FromDomainBooking(ch.after), nil
}

// Cancel отменяет бронирование. Отмена уже отменённого ничего не меняет,
// из COMPLETED и NO_SHOW отмена запрещена. Статус оплаты не меняется.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d", id)

	if req.CancellationReason != nil && utf8.RuneCountInString(*req.CancellationReason) > domain.MaxCancellationReasonLength {
		s.logger.Warn("Cancel: cancellation reason for booking id=%d is too long", id)
		return nil, fmt.Errorf("%w: cancellation reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	return s.cancel(ctx, "Cancel", id, req.CancellationReason)
}

// TransitionPayment переводит оплату бронирования в запрошенный статус
func (s *Service) TransitionPayment(ctx context.Context, id int64, req *models.UpdatePaymentStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("TransitionPayment: booking id=%d to payment status=%s", id, req.PaymentStatus)

	requested, err := models.ToDomainPaymentStatus(req.PaymentStatus)
	if err != nil {
		s.logger.Warn("TransitionPayment: invalid payment status=%s for booking id=%d", req.PaymentStatus, id)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ch, err := s.mutate(ctx, "TransitionPayment", id, func(txCtx context.Context, b *domain.Booking) (bool, error) {
		next, err := statemachine.ApplyPayment(b.PaymentStatus, requested)
		if err != nil {
			return false, err
		}
		if next == b.PaymentStatus {
			return false, nil
		}
		return true, s.bookingRepo.UpdatePaymentStatus(txCtx, id, next)
	})
	if err != nil {
		return nil, err
	}

	if ch.changed {
		s.logger.Info("TransitionPayment: booking id=%d payment %s -> %s",
			id, ch.before.PaymentStatus, ch.after.PaymentStatus)
		s.metrics.ObserveTransition(kindPayment, string(ch.after.PaymentStatus))

		event := notifier.NewEvent(notifier.EventBookingPaymentChange, ch.after, s.timeProvider.Now())
		event.PreviousPaymentStatus = ch.before.PaymentStatus
		s.publish(ctx, "TransitionPayment", event)
	}

	return models.FromDomainBooking(ch.after), nil
}

// Вспомогательные методы

// change результат мутации бронирования в транзакции
type change struct {
	before  *domain.Booking
	after   *domain.Booking
	changed bool
}

// cancel переводит бронирование в CANCELED с причиной и временем отмены
func (s *Service) cancel(ctx context.Context, op string, id int64, reason *string) (*models.BookingResponse, error) {
	ch, err := s.mutate(ctx, op, id, func(txCtx context.Context, b *domain.Booking) (bool, error) {
		next, err := statemachine.Apply(b.Status, domain.StatusCanceled)
		if err != nil {
			return false, err
		}
		if next == b.Status {
			return false, nil
		}
		return true, s.bookingRepo.Cancel(txCtx, id, reason, s.timeProvider.Now())
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, op, ch)
	return models.FromDomainBooking(ch.after), nil
}

// mutate читает бронирование FOR UPDATE, применяет изменение и перечитывает его
// в одной транзакции. apply возвращает false, если менять нечего.
func (s *Service) mutate(
	ctx context.Context,
	op string,
	id int64,
	apply func(ctx context.Context, b *domain.Booking) (bool, error),
) (*change, error) {
	var result change

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Получаем бронирование с блокировкой строки
		current, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("%s: booking id=%d not found", op, id)
				return ErrBookingNotFound
			}
			s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
		}
		result.before = current

		// 2. Применяем переход
		changed, err := apply(txCtx, current)
		if err != nil {
			if errors.Is(err, statemachine.ErrInvalidTransition) {
				s.logger.Warn("%s: booking id=%d: %v", op, id, err)
				return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
			}
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("%s: booking id=%d not found during update", op, id)
				return ErrBookingNotFound
			}
			s.logger.Error("%s: failed to update booking id=%d: %v", op, id, err)
			return fmt.Errorf("%w: %s - update: %v", ErrInternal, op, err)
		}
		if !changed {
			result.after = current
			return nil
		}
		result.changed = true

		// 3. Перечитываем бронирование после изменения
		updated, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			s.logger.Error("%s: failed to reload booking id=%d: %v", op, id, err)
			return fmt.Errorf("%w: %s - reload: %v", ErrInternal, op, err)
		}
		result.after = updated
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		s.logger.Error("%s: transaction failed for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - transaction: %v", ErrInternal, op, err)
	}

	return &result, nil
}

// afterStatusChange считает метрику и публикует событие после коммита
func (s *Service) afterStatusChange(ctx context.Context, op string, ch *change) {
	if !ch.changed {
		s.logger.Info("%s: booking id=%d already in status=%s", op, ch.after.ID, ch.after.Status)
		return
	}

	s.logger.Info("%s: booking id=%d status %s -> %s", op, ch.after.ID, ch.before.Status, ch.after.Status)
	s.metrics.ObserveTransition(kindStatus, string(ch.after.Status))

	event := notifier.NewEvent(notifier.EventBookingStatusChanged, ch.after, s.timeProvider.Now())
	event.PreviousStatus = ch.before.Status
	s.publish(ctx, op, event)
}

// publish отправляет событие; ошибка только логируется
func (s *Service) publish(ctx context.Context, op string, event notifier.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Error("%s: failed to publish %s for booking id=%d: %v", op, event.Type, event.BookingID, err)
	}
}

package guest_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
)

// UseCase use case подтверждения гостевой записи
type UseCase struct {
	resolver    SelectionResolver
	creator     BookingCreator
	catalogRepo CatalogRepository
	validate    *validator.Validate
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	resolver SelectionResolver,
	creator BookingCreator,
	catalogRepo CatalogRepository,
	logger Logger,
) *UseCase {
	return &UseCase{
		resolver:    resolver,
		creator:     creator,
		catalogRepo: catalogRepo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// Execute проверяет контакт гостя, заново разрешает выбор и резервирует
// интервал на суммарную длительность всех выбранных услуг.
// Ошибки резервирования возвращаются как ошибки create_booking.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*create_booking.Response, error) {
	uc.logger.Info("GuestBooking: specialist=%d, services=%v, start=%s",
		req.SpecialistID, req.ServiceIDs, req.StartUTC.UTC().Format(time.RFC3339))

	// 1. Валидация входных данных
	normalized := *req
	normalized.Contact = normalizeContact(req.Contact)
	req = &normalized
	if err := validateRequest(uc.validate, req); err != nil {
		uc.logger.Warn("GuestBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Заново разрешаем выбор: связи могли измениться, пока гость выбирал
	selection, err := uc.resolver.Execute(ctx, &resolve_selection.Request{ServiceIDs: req.ServiceIDs})
	if err != nil {
		switch {
		case errors.Is(err, resolve_selection.ErrServiceNotFound):
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		case errors.Is(err, resolve_selection.ErrInvalidInput), errors.Is(err, resolve_selection.ErrCurrencyMismatch):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		default:
			uc.logger.Error("GuestBooking: failed to resolve selection %v: %v", req.ServiceIDs, err)
			return nil, fmt.Errorf("%w: resolve selection: %v", ErrInternal, err)
		}
	}

	// 3. Проверяем, что специалист входит в пересечение
	if !selection.HasSpecialist(req.SpecialistID) {
		if _, err := uc.catalogRepo.GetSpecialist(ctx, req.SpecialistID); err != nil {
			if errors.Is(err, catalogRepo.ErrSpecialistNotFound) {
				uc.logger.Warn("GuestBooking: specialist id=%d not found", req.SpecialistID)
				return nil, ErrSpecialistNotFound
			}
			uc.logger.Error("GuestBooking: failed to get specialist id=%d: %v", req.SpecialistID, err)
			return nil, fmt.Errorf("%w: failed to get specialist: %v", ErrInternal, err)
		}
		uc.logger.Warn("GuestBooking: specialist id=%d does not perform all of %v", req.SpecialistID, req.ServiceIDs)
		return nil, ErrSpecialistNotLinked
	}

	// 4. Резервируем интервал на все услуги подряд
	resp, err := uc.creator.Execute(ctx, &create_booking.Request{
		SpecialistID: req.SpecialistID,
		ServiceIDs:   selection.ServiceIDs(),
		StartUTC:     req.StartUTC,
		Client: domain.ClientInfo{
			UserID: req.UserID,
			Name:   req.Contact.Name,
			Email:  req.Contact.Email,
			Phone:  req.Contact.Phone,
		},
		Note: req.Note,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("GuestBooking: booking id=%d created for %s, total %d %s",
		resp.ID, resp.Client.Email, resp.PriceCents, resp.Currency)
	return resp, nil
}

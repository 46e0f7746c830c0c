package create_booking

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	guestBooking "github.com/m04kA/SMC-ClinicBooking/internal/usecase/guest_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStart       = "некорректное время начала, ожидается RFC3339 (2025-03-10T07:00:00Z), и хотя бы одна услуга"
	msgInvalidInput       = "некорректные данные бронирования"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgSpecialistNotFound = "специалист не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgNotLinked          = "специалист не выполняет все выбранные услуги"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
	msgInvalidTimeSlot    = "время начала не совпадает со свободным слотом"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
)

type Handler struct {
	useCase GuestBookingUseCase
	logger  Logger
}

func NewHandler(useCase GuestBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/guest
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/guest - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Авторизованный пользователь необязателен
	var userID *int64
	if id, ok := middleware.GetUserID(r.Context()); ok {
		userID = &id
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings/guest - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStart)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings/guest - Slot not available: specialist_id=%d, start=%s",
				req.SpecialistID, req.StartUTC)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, guestBooking.ErrSpecialistNotLinked), errors.Is(err, createBooking.ErrSpecialistNotLinked):
			h.logger.Warn("POST /bookings/guest - Specialist not linked: specialist_id=%d, services=%v",
				req.SpecialistID, useCaseReq.ServiceIDs)
			handlers.RespondUnprocessable(w, msgNotLinked)

		case errors.Is(err, guestBooking.ErrSpecialistNotFound), errors.Is(err, createBooking.ErrSpecialistNotFound):
			h.logger.Warn("POST /bookings/guest - Specialist not found: specialist_id=%d", req.SpecialistID)
			handlers.RespondNotFound(w, msgSpecialistNotFound)

		case errors.Is(err, guestBooking.ErrServiceNotFound), errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings/guest - Service not found: services=%v", useCaseReq.ServiceIDs)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrDateTooFarInFuture):
			h.logger.Warn("POST /bookings/guest - Date too far in future: specialist_id=%d, start=%s",
				req.SpecialistID, req.StartUTC)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings/guest - Invalid time slot: specialist_id=%d, start=%s",
				req.SpecialistID, req.StartUTC)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /bookings/guest - Too late to book: specialist_id=%d, start=%s",
				req.SpecialistID, req.StartUTC)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, guestBooking.ErrInvalidInput), errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings/guest - Invalid input: %v", err)
			handlers.RespondError(w, http.StatusBadRequest, msgInvalidInput+": "+errorDetail(err))

		default:
			h.logger.Error("POST /bookings/guest - Failed to create booking: specialist_id=%d, error=%v",
				req.SpecialistID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings/guest - Booking created successfully: booking_id=%d, specialist_id=%d, status=%s",
		result.ID, result.SpecialistID, result.Status)
	handlers.RespondJSON(w, http.StatusCreated, response)
}

// errorDetail отдает клиенту текст ошибки валидации без префикса пакета
func errorDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{guestBooking.ErrInvalidInput, createBooking.ErrInvalidInput} {
		if detail, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return detail
		}
	}
	return msg
}

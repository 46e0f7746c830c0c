package cancel_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidReason      = "слишком длинная причина отмены"
	msgNotFound           = "бронирование не найдено"
	msgCannotCancel       = "бронирование не может быть отменено в текущем статусе"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/cancel и DELETE /api/v1/bookings/{bookingId}.
// Тело необязательно для DELETE.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " /bookings/{id}"
	if r.Method == http.MethodPatch {
		route += "/cancel"
	}

	// Извлекаем bookingId из URL
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	// Декодируем body, если он есть
	var req CancelBookingRequest
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			h.logger.Warn("%s - Invalid request body: %v", route, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), bookingID, req.ToServiceRequest())
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("%s - Booking not found: booking_id=%d", route, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("%s - Cannot cancel: booking_id=%d", route, bookingID)
			handlers.RespondConflict(w, msgCannotCancel)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("%s - Invalid input: booking_id=%d, error=%v", route, bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidReason)

		default:
			h.logger.Error("%s - Failed to cancel booking: booking_id=%d, error=%v", route, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Booking cancelled successfully: booking_id=%d", route, bookingID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}

package update_payment_status

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
)

const (
	msgInvalidBookingID     = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidPaymentStatus = "некорректный статус оплаты"
	msgNotFound             = "бронирование не найдено"
	msgInvalidTransition    = "переход в указанный статус оплаты недопустим"
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

// Handle PATCH /api/v1/bookings/{bookingId}/payment-status
// Вызывается платежным шлюзом или сотрудником клиники
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/payment-status - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req models.UpdatePaymentStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/payment-status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.TransitionPayment(r.Context(), bookingID, &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/payment-status - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("PATCH /bookings/{id}/payment-status - Invalid transition: booking_id=%d, to=%s",
				bookingID, req.PaymentStatus)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/payment-status - Invalid payment status: booking_id=%d, status=%q",
				bookingID, req.PaymentStatus)
			handlers.RespondBadRequest(w, msgInvalidPaymentStatus)

		default:
			h.logger.Error("PATCH /bookings/{id}/payment-status - Failed to change payment status: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/payment-status - Payment status changed: booking_id=%d, payment_status=%s",
		bookingID, booking.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, booking)
}

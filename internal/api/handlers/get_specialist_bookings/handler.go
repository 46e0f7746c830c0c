package get_specialist_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
)

const (
	msgInvalidSpecialistID = "некорректный ID специалиста"
	msgInvalidParams       = "некорректные параметры запроса"
	msgInvalidTimeRange    = "начало периода должно быть раньше конца"
	msgSpecialistNotFound  = "специалист не найден"
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

// Handle GET /api/v1/specialists/{specialistId}/bookings
// Query params: from, to (RFC3339), status, includeInactive (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем specialistId из URL
	vars := mux.Vars(r)
	specialistID, err := strconv.ParseInt(vars["specialistId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/bookings - Invalid specialist ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialistID)
		return
	}

	// Получаем опциональные query параметры
	query := r.URL.Query()
	serviceReq, err := ToServiceRequest(
		specialistID,
		query.Get("from"),
		query.Get("to"),
		query.Get("status"),
		query.Get("includeInactive"),
	)
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/bookings - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.ListBySpecialist(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrSpecialistNotFound):
			h.logger.Warn("GET /specialists/{id}/bookings - Specialist not found: specialist_id=%d", specialistID)
			handlers.RespondNotFound(w, msgSpecialistNotFound)

		case errors.Is(err, bookings.ErrInvalidTimeRange):
			h.logger.Warn("GET /specialists/{id}/bookings - Invalid time range: specialist_id=%d", specialistID)
			handlers.RespondBadRequest(w, msgInvalidTimeRange)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /specialists/{id}/bookings - Invalid filter: specialist_id=%d, error=%v", specialistID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /specialists/{id}/bookings - Failed to get bookings: specialist_id=%d, error=%v",
				specialistID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /specialists/{id}/bookings - Bookings retrieved successfully: specialist_id=%d, count=%d",
		specialistID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}

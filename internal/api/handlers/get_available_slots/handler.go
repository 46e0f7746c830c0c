package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-ClinicBooking/internal/usecase/get_available_slots"
)

const (
	msgInvalidSpecialistID = "некорректный ID специалиста"
	msgMissingServiceIDs   = "список услуг обязателен"
	msgMissingDate         = "дата обязательна"
	msgInvalidQuery        = "некорректные параметры: ожидаются serviceIds=1,2 и date=YYYY-MM-DD"
	msgInvalidInput        = "некорректный набор услуг"
	msgSpecialistNotFound  = "специалист не найден"
	msgServiceNotFound     = "услуга не найдена"
	msgNotLinked           = "специалист не выполняет выбранные услуги"
	msgInvalidDate         = "дата в прошлом"
	msgDateTooFar          = "дата слишком далеко в будущем"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/specialists/{specialistId}/available-slots
// Query params: serviceIds (required, "1,2"), date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	// Извлекаем specialistId из URL
	specialistID, err := strconv.ParseInt(vars["specialistId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/available-slots - Invalid specialist ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialistID)
		return
	}

	query := r.URL.Query()
	serviceIDsStr := query.Get("serviceIds")
	if serviceIDsStr == "" {
		// Одиночная услуга допускается под старым именем параметра
		serviceIDsStr = query.Get("serviceId")
	}
	if serviceIDsStr == "" {
		h.logger.Warn("GET /specialists/{id}/available-slots - Missing service IDs")
		handlers.RespondBadRequest(w, msgMissingServiceIDs)
		return
	}

	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /specialists/{id}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(specialistID, serviceIDsStr, dateStr)
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/available-slots - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrSpecialistNotFound):
			h.logger.Warn("GET /specialists/{id}/available-slots - Specialist not found: specialist_id=%d", specialistID)
			handlers.RespondNotFound(w, msgSpecialistNotFound)

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /specialists/{id}/available-slots - Service not found: specialist_id=%d, services=%v",
				specialistID, useCaseReq.ServiceIDs)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrSpecialistNotLinked):
			h.logger.Warn("GET /specialists/{id}/available-slots - Specialist not linked: specialist_id=%d, services=%v",
				specialistID, useCaseReq.ServiceIDs)
			handlers.RespondUnprocessable(w, msgNotLinked)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			h.logger.Warn("GET /specialists/{id}/available-slots - Date in the past: specialist_id=%d, date=%s",
				specialistID, useCaseReq.Date)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, getAvailableSlots.ErrDateTooFarInFuture):
			h.logger.Warn("GET /specialists/{id}/available-slots - Date too far: specialist_id=%d, date=%s",
				specialistID, useCaseReq.Date)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /specialists/{id}/available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /specialists/{id}/available-slots - Failed to get slots: specialist_id=%d, services=%v, error=%v",
				specialistID, useCaseReq.ServiceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Формируем HTTP ответ
	response := FromUseCaseResponse(result)

	h.logger.Info("GET /specialists/{id}/available-slots - Slots retrieved successfully: specialist_id=%d, date=%s, slots_count=%d",
		specialistID, result.Date, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, response)
}

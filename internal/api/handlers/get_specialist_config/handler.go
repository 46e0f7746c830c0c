package get_specialist_config

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy"
)

const (
	msgInvalidSpecialistID = "некорректный ID специалиста"
	msgSpecialistNotFound  = "специалист не найден"
)

type Handler struct {
	service PolicyService
	logger  Logger
}

func NewHandler(service PolicyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/specialists/{specialistId}/config
// Публичный endpoint: сетка, буфер, рабочие часы и действующая политика
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем specialistId из URL
	vars := mux.Vars(r)
	specialistID, err := strconv.ParseInt(vars["specialistId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /specialists/{id}/config - Invalid specialist ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSpecialistID)
		return
	}

	result, err := h.service.GetSpecialistConfig(r.Context(), specialistID)
	if err != nil {
		if errors.Is(err, policy.ErrSpecialistNotFound) {
			h.logger.Warn("GET /specialists/{id}/config - Specialist not found: specialist_id=%d", specialistID)
			handlers.RespondNotFound(w, msgSpecialistNotFound)
			return
		}

		h.logger.Error("GET /specialists/{id}/config - Failed to get config: specialist_id=%d, error=%v",
			specialistID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /specialists/{id}/config - Config retrieved successfully: specialist_id=%d, policy_level=%s",
		specialistID, result.Policy.Level)
	handlers.RespondJSON(w, http.StatusOK, result)
}

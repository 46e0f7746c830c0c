package upsert_policy

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные политики"
	msgSpecialistNotFound = "специалист не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgConflict           = "политика изменена параллельно, повторите запрос"
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

// Handle PUT /api/v1/policies
// Ключ политики (specialistId, serviceId) передается в теле; отсутствующее поле означает "для всех".
// 201 при создании, 200 при замене правил.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertPolicyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /policies - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, created, err := h.service.Upsert(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrInvalidInput):
			h.logger.Warn("PUT /policies - Invalid data: error=%v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case errors.Is(err, policy.ErrSpecialistNotFound):
			h.logger.Warn("PUT /policies - Specialist not found: specialist_id=%v", req.SpecialistID)
			handlers.RespondNotFound(w, msgSpecialistNotFound)

		case errors.Is(err, policy.ErrServiceNotFound):
			h.logger.Warn("PUT /policies - Service not found: service_id=%v", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, policy.ErrPolicyConflict):
			h.logger.Warn("PUT /policies - Concurrent modification: specialist_id=%v, service_id=%v",
				req.SpecialistID, req.ServiceID)
			handlers.RespondConflict(w, msgConflict)

		default:
			h.logger.Error("PUT /policies - Failed to save policy: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	h.logger.Info("PUT /policies - Policy saved successfully: policy_id=%d, level=%s, created=%t",
		result.ID, result.Level, created)
	handlers.RespondJSON(w, status, result)
}

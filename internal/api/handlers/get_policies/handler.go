package get_policies

import (
	"net/http"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
)

const (
	msgInvalidParams = "некорректные параметры запроса"
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

// Handle GET /api/v1/policies
// Query params: specialistId, serviceId (опционально).
// С параметрами возвращает действующую политику по иерархии, без них все настроенные политики.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	serviceReq, err := ToServiceRequest(query.Get("specialistId"), query.Get("serviceId"))
	if err != nil {
		h.logger.Warn("GET /policies - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	if serviceReq == nil {
		result, err := h.service.GetAll(r.Context())
		if err != nil {
			h.logger.Error("GET /policies - Failed to get policies: error=%v", err)
			handlers.RespondInternalError(w)
			return
		}

		h.logger.Info("GET /policies - Policies retrieved successfully: count=%d", len(result.Policies))
		handlers.RespondJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.service.GetEffective(r.Context(), serviceReq)
	if err != nil {
		h.logger.Error("GET /policies - Failed to resolve policy: specialist_id=%v, service_id=%v, error=%v",
			serviceReq.SpecialistID, serviceReq.ServiceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /policies - Effective policy resolved: specialist_id=%v, service_id=%v, level=%s",
		serviceReq.SpecialistID, serviceReq.ServiceID, result.Level)
	handlers.RespondJSON(w, http.StatusOK, result)
}

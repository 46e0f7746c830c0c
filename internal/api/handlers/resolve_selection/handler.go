package resolve_selection

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
	resolveSelection "github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректный набор услуг"
	msgServiceNotFound    = "услуга не найдена"
	msgCurrencyMismatch   = "услуги оценены в разных валютах"
)

type Handler struct {
	useCase ResolveSelectionUseCase
	logger  Logger
}

func NewHandler(useCase ResolveSelectionUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/selection/resolve
// Возвращает специалистов, выполняющих все выбранные услуги, и итоги по цене и длительности.
// Пустой список специалистов не является ошибкой.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ResolveSelectionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /selection/resolve - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, resolveSelection.ErrInvalidInput):
			h.logger.Warn("POST /selection/resolve - Invalid input: services=%v, error=%v", req.ServiceIDs, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, resolveSelection.ErrServiceNotFound):
			h.logger.Warn("POST /selection/resolve - Service not found: services=%v", req.ServiceIDs)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, resolveSelection.ErrCurrencyMismatch):
			h.logger.Warn("POST /selection/resolve - Currency mismatch: services=%v", req.ServiceIDs)
			handlers.RespondUnprocessable(w, msgCurrencyMismatch)

		default:
			h.logger.Error("POST /selection/resolve - Failed to resolve selection: services=%v, error=%v",
				req.ServiceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /selection/resolve - Selection resolved: services=%v, specialists=%d",
		req.ServiceIDs, len(result.Specialists))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

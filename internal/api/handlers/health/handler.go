package health

import (
	"context"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
)

const pingTimeout = 2 * time.Second

// Pinger проверка доступности хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Logger interface {
	Warn(format string, v ...interface{})
}

type statusResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type Handler struct {
	pinger Pinger // nil для in-memory хранилища
	logger Logger
}

func NewHandler(pinger Pinger, logger Logger) *Handler {
	return &Handler{
		pinger: pinger,
		logger: logger,
	}
}

// Handle GET /healthz
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		handlers.RespondJSON(w, http.StatusOK, statusResponse{Status: "ok", Storage: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.pinger.PingContext(ctx); err != nil {
		h.logger.Warn("GET /healthz - Database is unavailable: %v", err)
		handlers.RespondJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Storage: "postgres"})
		return
	}
	handlers.RespondJSON(w, http.StatusOK, statusResponse{Status: "ok", Storage: "postgres"})
}

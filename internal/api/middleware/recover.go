package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
)

// Logger интерфейс для логирования
type Logger interface {
	Error(format string, v ...interface{})
}

// Recover превращает панику обработчика в 500
func Recover(logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("%s %s - panic: request_id=%s, error=%v\n%s",
						r.Method, r.URL.Path, GetRequestID(r.Context()), rec, debug.Stack())
					handlers.RespondInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers"
)

// HeaderUserID заголовок с ID авторизованного пользователя, выставляется шлюзом
const HeaderUserID = "X-User-ID"

const msgInvalidUserID = "некорректный заголовок X-User-ID"

type userIDKey struct{}

// OptionalUser кладет ID пользователя в контекст, если он передан.
// Гостевые запросы проходят без заголовка; некорректное значение отклоняется.
func OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderUserID)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondBadRequest(w, msgInvalidUserID)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

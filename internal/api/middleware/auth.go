package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ResourceService/internal/api/handlers"
)

type ctxKey string

const userIDKey ctxKey = "userID"

const msgMissingUserID = "отсутствует или некорректен заголовок X-User-ID"

// Auth требует заголовок X-User-ID на защищенных маршрутах
// Политика прав не здесь: сервис доверяет шлюзу платформы, который
// аутентифицирует пользователя и проставляет заголовок
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает ID пользователя, проставленный middleware Auth
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const requestIDKey ctxKey = "requestID"

// RequestIDHeader заголовок сквозного идентификатора запроса
const RequestIDHeader = "X-Request-ID"

// RequestID проставляет сквозной идентификатор запроса: входящий
// заголовок переиспользуется, иначе генерируется новый UUID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID возвращает идентификатор запроса из контекста
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

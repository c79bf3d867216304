package middleware

import (
	"context"
	"net/http"

	"github.com/pribylovaa/threads-service/internal/config"
)

// Timeout ограничивает обработку запроса сервисным дедлайном cfg.Service:
// его же ждут сторадж и загрузка ветки. Более ранний дедлайн, пришедший
// с запросом, сохраняется. cfg.Service <= 0 отключает ограничение.
func Timeout(cfg config.TimeoutConfig) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg.Service <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Service)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

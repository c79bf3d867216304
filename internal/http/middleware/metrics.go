package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/threads-service/internal/metrics"
)

// Metrics считает запросы и их длительность. Маршрут берётся из шаблона chi
// ("/api/v1/statuses/{id}"), а не из пути, чтобы не плодить лейблы.
// m == nil делает мидлвар no-op.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := wrap(w)
			start := time.Now()

			next.ServeHTTP(sw, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, sw.Status(), time.Since(start))
		})
	}
}

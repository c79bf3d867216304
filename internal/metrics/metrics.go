// Package metrics содержит Prometheus-коллекторы threads-service.
// Все методы *Metrics безопасны для nil-получателя: без метрик сервис работает так же.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "threads"

// Metrics — набор коллекторов HTTP-слоя и восстановления веток.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	resolveIDs   *prometheus.HistogramVec
	cached       prometheus.Gauge
}

// New создаёт коллекторы и регистрирует их в reg.
// Повторная регистрация в том же реестре приводит к панике (как prometheus.MustRegister).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		resolveIDs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "thread_resolve_ids",
			Help:      "Number of ids returned by thread resolution, by direction.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"direction"}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "contexts_cached_statuses",
			Help:      "Statuses held by the in-memory thread index.",
		}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.resolveIDs, m.cached)

	return m
}

// ObserveHTTP учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, code int, dur time.Duration) {
	if m == nil {
		return
	}

	if route == "" {
		route = "unmatched"
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

// ObserveResolve учитывает размеры половин восстановленной ветки.
func (m *Metrics) ObserveResolve(ancestors, descendants int) {
	if m == nil {
		return
	}

	m.resolveIDs.WithLabelValues("ancestors").Observe(float64(ancestors))
	m.resolveIDs.WithLabelValues("descendants").Observe(float64(descendants))
}

// SetCachedStatuses выставляет текущий размер индекса веток.
func (m *Metrics) SetCachedStatuses(n int) {
	if m == nil {
		return
	}

	m.cached.Set(float64(n))
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/threads-service/internal/config"
	"github.com/pribylovaa/threads-service/internal/http/handlers"
	"github.com/pribylovaa/threads-service/internal/http/middleware"
	"github.com/pribylovaa/threads-service/internal/metrics"
	"github.com/pribylovaa/threads-service/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // nil — без метрик.
	Timeouts config.TimeoutConfig
	BasePath string // например, "/api/v1"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования: id попадает в логгер запроса
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.Timeout(opts.Timeouts),
	)

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/statuses", h.CreateStatus)
	r.Get("/statuses/{id}", h.GetStatus)
	r.Delete("/statuses/{id}", h.DeleteStatus)
	r.Get("/statuses/{id}/context", h.GetContext)
	r.Get("/statuses/{id}/replies", h.ListReplies)
}

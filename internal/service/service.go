// service содержит бизнес-логику threads-service.
package service

import (
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/threads-service/internal/config"
	"github.com/pribylovaa/threads-service/internal/contexts"
	"github.com/pribylovaa/threads-service/internal/metrics"
	"github.com/pribylovaa/threads-service/internal/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — конфликт уникальности.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — статус, на который отвечают, не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимальная глубина ветки.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика threads-service.
//
// Помимо хранилища держит индекс веток (contexts.Store): он наполняется всеми
// загруженными статусами и используется для восстановления ветки вокруг статуса.
// Размер индекса ограничен cfg.Cache.Size.
type Service struct {
	storage storage.Storage
	cfg     config.Config
	store   *contexts.Store
	metrics *metrics.Metrics
	loads   singleflight.Group
}

// New создаёт новый экземпляр Service. m может быть nil.
func New(storage storage.Storage, cfg config.Config, m *metrics.Metrics) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		store:   contexts.New(cfg.Cache.Size),
		metrics: m,
	}
}

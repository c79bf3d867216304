package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/threads-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrConflict — конфликт уникальности.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — указан in_reply_to_id, но родитель не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — превышена максимально допустимая глубина ветки.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
)

// Storage описывает операции над статусами.
type Storage interface {
	// CreateStatus создаёт корневой статус или ответ.
	// Входной Status должен содержать AccountID, Username, Content и, для ответа, InReplyToID.
	// Вычисляются хранилищем: ID, Depth, RepliesCount, IsDeleted, CreatedAt, UpdatedAt.
	// Возможные ошибки: ErrParentNotFound, ErrMaxDepthExceeded, ErrConflict.
	CreateStatus(ctx context.Context, status models.Status) (*models.Status, error)

	// DeleteStatus выполняет мягкое удаление (is_deleted=true, content очищается).
	// Если запись не найдена — ErrNotFound.
	DeleteStatus(ctx context.Context, id string) error

	// StatusByID возвращает статус по идентификатору (включая удалённые).
	// Если запись не найдена — ErrNotFound.
	StatusByID(ctx context.Context, id string) (*models.Status, error)

	// ListReplies возвращает страницу прямых ответов на parentID.
	// Сортировка: created_at ASC, id ASC. При некорректном page_token — ErrInvalidCursor.
	ListReplies(ctx context.Context, parentID string, p models.ListParams) (*models.Page, error)

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}

// Package models содержит доменные сущности threads-service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status — доменная модель статуса (поста или ответа).
// Важно:
//   - ID — непрозрачная строка: ObjectID для MongoDB, UUID для PostgreSQL.
//   - InReplyToID — id статуса, на который это ответ; пусто для корня ветки.
//   - AccountID/Username — автор (аккаунты принадлежат смежному сервису).
//   - Depth — глубина в ветке (корень = 0). Проверяется на запись по cfg.Limits.MaxDepth.
//   - RepliesCount — количество прямых ответов.
//   - IsDeleted — мягкое удаление; content при этом очищается.
type Status struct {
	ID           string
	InReplyToID  string
	AccountID    uuid.UUID
	Username     string
	Content      string
	Depth        int32
	RepliesCount int32
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListParams — базовые параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// Page — результат постраничной выдачи.
type Page struct {
	Items         []Status
	NextPageToken string
}

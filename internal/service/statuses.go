package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/storage"
	"github.com/pribylovaa/threads-service/pkg/log"
)

// CreateStatusInput — создание корневого статуса или ответа.
// Если InReplyToID пуст, создаётся корень ветки.
type CreateStatusInput struct {
	AccountID   uuid.UUID
	Username    string
	Content     string
	InReplyToID string
}

// ListRepliesInput — параметры постраничной выдачи ответов на статус.
type ListRepliesInput struct {
	ParentID  string
	PageSize  int32
	PageToken string
}

// CreateStatus — бизнес-операция создания статуса.
//
// Валидация:
//   - AccountID обязателен (uuid.Nil -> ErrInvalidArgument);
//   - Username и Content нормализуются (TrimSpace) и не должны быть пустыми;
//   - длина Content не превышает cfg.Limits.MaxContent символов.
//
// Поведение/ошибки:
//   - ErrMaxDepthExceeded — если глубина уже известна из индекса веток или её отверг сторадж;
//   - ErrParentNotFound — если InReplyToID указан, но родителя нет;
//   - ErrConflict — конфликт уникальности;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) CreateStatus(ctx context.Context, in CreateStatusInput) (*models.Status, error) {
	const op = "service/statuses/CreateStatus"

	in.InReplyToID = strings.TrimSpace(in.InReplyToID)
	lg := log.From(ctx).With(
		"op", op,
		"account_id", in.AccountID.String(),
		"in_reply_to_id", in.InReplyToID,
	)

	if in.AccountID == uuid.Nil {
		lg.Warn("invalid argument: empty account_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		lg.Warn("invalid argument: empty username")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		lg.Warn("invalid argument: empty content")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if utf8.RuneCountInString(in.Content) > s.cfg.Limits.MaxContent {
		lg.Warn("invalid argument: content too long")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	// Индекс знает нижнюю границу глубины родителя: если уже она не проходит,
	// в сторадж не ходим.
	if in.InReplyToID != "" && int32(s.store.Depth(in.InReplyToID))+1 > s.cfg.Limits.MaxDepth {
		lg.Warn("max depth exceeded (cached)")
		return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
	}

	result, err := s.storage.CreateStatus(ctx, models.Status{
		InReplyToID: in.InReplyToID,
		AccountID:   in.AccountID,
		Username:    in.Username,
		Content:     in.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrMaxDepthExceeded):
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			lg.Error("storage error on CreateStatus", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.remember(*result)

	return result, nil
}

// StatusByID — получить статус по ID.
//
// Поведение/ошибки:
//   - ErrInvalidArgument — пустой id;
//   - ErrNotFound — статус не найден (включая неверный формат идентификатора);
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) StatusByID(ctx context.Context, id string) (*models.Status, error) {
	const op = "service/statuses/StatusByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.storage.StatusByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("status not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on StatusByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.remember(*result)

	return result, nil
}

// DeleteStatus — мягкое удаление статуса по ID. Статус убирается и из индекса веток;
// его ответы остаются привязанными к нему и при следующей загрузке ветки он
// вернётся как удалённый.
func (s *Service) DeleteStatus(ctx context.Context, id string) error {
	const op = "service/statuses/DeleteStatus"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.storage.DeleteStatus(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("status not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on DeleteStatus", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.store.Remove(id)
	s.metrics.SetCachedStatuses(s.store.Len())

	return nil
}

// ListReplies — страница прямых ответов на статус.
//
// Поведение/ошибки:
//   - ErrInvalidArgument — пустой parent_id;
//   - ErrNotFound — неверный формат parent_id;
//   - ErrInvalidCursor — некорректный page_token;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) ListReplies(ctx context.Context, in ListRepliesInput) (*models.Page, error) {
	const op = "service/statuses/ListReplies"

	in.ParentID = strings.TrimSpace(in.ParentID)
	lg := log.From(ctx).With("op", op, "parent_id", in.ParentID)

	if in.ParentID == "" {
		lg.Warn("invalid argument: empty parent_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.storage.ListReplies(ctx, in.ParentID, models.ListParams{
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor):
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ListReplies", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.remember(page.Items...)

	return page, nil
}

// remember кладёт статусы в индекс веток и обновляет метрику его размера.
func (s *Service) remember(statuses ...models.Status) {
	s.store.Import(statuses...)
	s.metrics.SetCachedStatuses(s.store.Len())
}

package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/storage"
)

const statusColumns = `id, in_reply_to_id, account_id, username, content, depth, replies_count, is_deleted, created_at, updated_at`

// scanStatus читает строку statusColumns в модель.
func scanStatus(row pgx.Row) (models.Status, error) {
	var (
		st        models.Status
		id        uuid.UUID
		inReplyTo *uuid.UUID
	)

	if err := row.Scan(
		&id,
		&inReplyTo,
		&st.AccountID,
		&st.Username,
		&st.Content,
		&st.Depth,
		&st.RepliesCount,
		&st.IsDeleted,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		return models.Status{}, err
	}

	st.ID = id.String()
	if inReplyTo != nil {
		st.InReplyToID = inReplyTo.String()
	}
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()

	return st, nil
}

// CreateStatus создаёт статус. Для ответа в одной транзакции блокирует родителя,
// проверяет глубину, вставляет запись и инкрементирует replies_count.
func (s *Storage) CreateStatus(ctx context.Context, status models.Status) (*models.Status, error) {
	const op = "storage/postgres/CreateStatus"

	var parentID *uuid.UUID
	if p := strings.TrimSpace(status.InReplyToID); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}
		parentID = &id
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var depth int32
	if parentID != nil {
		var parentDepth int32
		err := tx.QueryRow(ctx, `SELECT depth FROM statuses WHERE id = $1 FOR UPDATE`, *parentID).Scan(&parentDepth)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find parent: %w", op, err)
		}

		if parentDepth+1 > s.cfg.Limits.MaxDepth {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMaxDepthExceeded)
		}
		depth = parentDepth + 1
	}

	out, err := scanStatus(tx.QueryRow(ctx, `
	INSERT INTO statuses (in_reply_to_id, account_id, username, content, depth)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING `+statusColumns,
		parentID, status.AccountID, status.Username, status.Content, depth))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
			case pgerrcode.ForeignKeyViolation:
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	if parentID != nil {
		if _, err := tx.Exec(ctx, `
		UPDATE statuses SET replies_count = replies_count + 1, updated_at = now()
		WHERE id = $1
		`, *parentID); err != nil {
			return nil, fmt.Errorf("%s: inc replies_count: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return &out, nil
}

// DeleteStatus — мягкое удаление: is_deleted=true, content очищается.
func (s *Storage) DeleteStatus(ctx context.Context, id string) error {
	const op = "storage/postgres/DeleteStatus"

	sid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, `
	UPDATE statuses SET is_deleted = TRUE, content = '', updated_at = now()
	WHERE id = $1
	`, sid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// StatusByID возвращает статус по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (s *Storage) StatusByID(ctx context.Context, id string) (*models.Status, error) {
	const op = "storage/postgres/StatusByID"

	sid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	st, err := scanStatus(s.db.QueryRow(ctx, `SELECT `+statusColumns+` FROM statuses WHERE id = $1`, sid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &st, nil
}

// ListReplies возвращает страницу прямых ответов на parentID.
// Сортировка: created_at ASC, id ASC; keyset-пагинация по (created_at, id).
func (s *Storage) ListReplies(ctx context.Context, parentID string, p models.ListParams) (*models.Page, error) {
	const op = "storage/postgres/ListReplies"

	pid, err := uuid.Parse(strings.TrimSpace(parentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	limit := p.PageSize
	if limit <= 0 {
		limit = s.cfg.Limits.Default
	}
	if limit > s.cfg.Limits.Max {
		limit = s.cfg.Limits.Max
	}

	var rows pgx.Rows
	if strings.TrimSpace(p.PageToken) == "" {
		rows, err = s.db.Query(ctx, `
		SELECT `+statusColumns+`
		FROM statuses
		WHERE in_reply_to_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
		`, pid, limit)
	} else {
		curT, curID, decErr := decodePageToken(p.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		rows, err = s.db.Query(ctx, `
		SELECT `+statusColumns+`
		FROM statuses
		WHERE in_reply_to_id = $1 AND (created_at, id) > ($2, $3)
		ORDER BY created_at ASC, id ASC
		LIMIT $4
		`, pid, curT, curID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var page models.Page
	for rows.Next() {
		st, scanErr := scanStatus(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, scanErr)
		}

		page.Items = append(page.Items, st)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	// Неполная страница — последняя.
	if n := len(page.Items); n > 0 && n == int(limit) {
		last := page.Items[n-1]
		page.NextPageToken = encodePageToken(last.CreatedAt, uuid.MustParse(last.ID))
	}

	return &page, nil
}

// encodePageToken кодирует пару ключей страницы в непрозрачный токен для клиента.
func encodePageToken(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UTC().UnixNano(), id.String())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodePageToken декодирует токен обратно в пару ключей.
func decodePageToken(token string) (time.Time, uuid.UUID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("bad parts")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	return time.Unix(0, nanos).UTC(), id, nil
}

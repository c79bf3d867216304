package mongo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/threads-service/internal/config"
	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// statusDoc — представление статуса в коллекции.
// account_id хранится строкой, чтобы не зависеть от кодека UUID.
type statusDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	InReplyToID  string             `bson:"in_reply_to_id"`
	AccountID    string             `bson:"account_id"`
	Username     string             `bson:"username"`
	Content      string             `bson:"content"`
	Depth        int32              `bson:"depth"`
	RepliesCount int32              `bson:"replies_count"`
	IsDeleted    bool               `bson:"is_deleted"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d statusDoc) toModel() models.Status {
	accountID, _ := uuid.Parse(d.AccountID)

	return models.Status{
		ID:           d.ID.Hex(),
		InReplyToID:  d.InReplyToID,
		AccountID:    accountID,
		Username:     d.Username,
		Content:      d.Content,
		Depth:        d.Depth,
		RepliesCount: d.RepliesCount,
		IsDeleted:    d.IsDeleted,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// toMS — MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// encodeCursor кодирует пару (created_at, _id) в непрозрачный токен для клиента.
func encodeCursor(t time.Time, id primitive.ObjectID) string {
	raw := fmt.Sprintf("%d|%s", t.UTC().UnixNano(), id.Hex())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
func decodeCursor(token string) (time.Time, primitive.ObjectID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("bad parts")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	oid, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	return time.Unix(0, nanos).UTC(), oid, nil
}

// limitOrDefault приводит запрошенный размер страницы к [Default, Max].
func limitOrDefault(cfg *config.Config, pageSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = cfg.Limits.Default
	}

	if lim > cfg.Limits.Max {
		lim = cfg.Limits.Max
	}

	return int64(lim)
}

// CreateStatus создаёт статус (корень или ответ).
//   - Для корня Depth=0.
//   - Для ответа проверяет родителя и глубину, Depth = parent.Depth + 1,
//     после вставки инкрементирует replies_count у родителя.
func (m *Mongo) CreateStatus(ctx context.Context, status models.Status) (*models.Status, error) {
	const op = "storage/mongo/CreateStatus"

	now := toMS(time.Now())
	doc := statusDoc{
		InReplyToID: strings.TrimSpace(status.InReplyToID),
		AccountID:   status.AccountID.String(),
		Username:    status.Username,
		Content:     status.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var parentOID primitive.ObjectID
	if doc.InReplyToID != "" {
		oid, err := primitive.ObjectIDFromHex(doc.InReplyToID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}
		parentOID = oid

		var parent statusDoc
		if err := m.statuses.FindOne(ctx, bson.D{{Key: "_id", Value: parentOID}}).Decode(&parent); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find parent: %w", op, err)
		}

		if parent.Depth+1 > m.cfg.Limits.MaxDepth {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMaxDepthExceeded)
		}

		doc.Depth = parent.Depth + 1
	}

	res, err := m.statuses.InsertOne(ctx, doc)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}
	doc.ID = oid

	if doc.InReplyToID != "" {
		_, err := m.statuses.UpdateByID(ctx, parentOID, bson.D{
			{Key: "$inc", Value: bson.D{{Key: "replies_count", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: toMS(time.Now())}}},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: inc replies_count: %w", op, err)
		}
	}

	out := doc.toModel()
	return &out, nil
}

// DeleteStatus помечает статус удалённым (мягкое удаление).
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) DeleteStatus(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteStatus"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.statuses.UpdateByID(ctx, oid, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "is_deleted", Value: true},
			{Key: "content", Value: ""},
			{Key: "updated_at", Value: toMS(time.Now())},
		}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// StatusByID возвращает статус по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) StatusByID(ctx context.Context, id string) (*models.Status, error) {
	const op = "storage/mongo/StatusByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc statusDoc
	if err := m.statuses.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// ListReplies возвращает страницу прямых ответов на parentID.
// Сортировка: created_at ASC, _id ASC.
func (m *Mongo) ListReplies(ctx context.Context, parentID string, param models.ListParams) (*models.Page, error) {
	const op = "storage/mongo/ListReplies"

	parentOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(parentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	limit := limitOrDefault(m.cfg, param.PageSize)

	filter := bson.D{{Key: "in_reply_to_id", Value: parentOID.Hex()}}

	// Курсор "больше" для ASC сортировки.
	if strings.TrimSpace(param.PageToken) != "" {
		t, oid, decErr := decodeCursor(param.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$gt", Value: t}}}},
			bson.D{
				{Key: "created_at", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$gt", Value: oid}}},
			},
		}})
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := m.statuses.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var (
		items []models.Status
		last  statusDoc
	)
	for cur.Next(ctx) {
		var doc statusDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc.toModel())
		last = doc
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	// Неполная страница — последняя.
	var next string
	if int64(len(items)) == limit {
		next = encodeCursor(last.CreatedAt, last.ID)
	}

	return &models.Page{
		Items:         items,
		NextPageToken: next,
	}, nil
}

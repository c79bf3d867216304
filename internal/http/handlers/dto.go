package handlers

import (
	"time"

	"github.com/pribylovaa/threads-service/internal/models"
)

// CreateStatusRequest — тело POST /statuses.
type CreateStatusRequest struct {
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	Content     string `json:"content"`
	InReplyToID string `json:"in_reply_to_id,omitempty"`
}

// StatusResponse — статус в ответах API.
type StatusResponse struct {
	ID           string    `json:"id"`
	InReplyToID  string    `json:"in_reply_to_id,omitempty"`
	AccountID    string    `json:"account_id"`
	Username     string    `json:"username"`
	Content      string    `json:"content"`
	Depth        int32     `json:"depth"`
	RepliesCount int32     `json:"replies_count"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ContextResponse — ответ GET /statuses/{id}/context.
type ContextResponse struct {
	Ancestors   []StatusResponse `json:"ancestors"`
	Descendants []StatusResponse `json:"descendants"`
}

// ListRepliesResponse — ответ GET /statuses/{id}/replies.
type ListRepliesResponse struct {
	Replies       []StatusResponse `json:"replies"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

func statusFromModel(s models.Status) StatusResponse {
	return StatusResponse{
		ID:           s.ID,
		InReplyToID:  s.InReplyToID,
		AccountID:    s.AccountID.String(),
		Username:     s.Username,
		Content:      s.Content,
		Depth:        s.Depth,
		RepliesCount: s.RepliesCount,
		IsDeleted:    s.IsDeleted,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}

// statusesFromModels всегда возвращает не-nil слайс: в JSON пустой список, а не null.
func statusesFromModels(in []models.Status) []StatusResponse {
	out := make([]StatusResponse, 0, len(in))
	for _, s := range in {
		out = append(out, statusFromModel(s))
	}
	return out
}

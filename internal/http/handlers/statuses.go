package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/threads-service/internal/http/errors"
	"github.com/pribylovaa/threads-service/internal/service"
)

func (h *Handlers) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var in CreateStatusRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("invalid body"))
		return
	}

	accountID, err := uuid.Parse(in.AccountID)
	if err != nil {
		apierrors.WriteError(w, r, errInvalidArgument("invalid account_id"))
		return
	}

	st, err := h.Service.CreateStatus(r.Context(), service.CreateStatusInput{
		AccountID:   accountID,
		Username:    in.Username,
		Content:     in.Content,
		InReplyToID: in.InReplyToID,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, statusFromModel(*st))
}

func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.StatusByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusFromModel(*st))
}

func (h *Handlers) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteStatus(r.Context(), chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetContext(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.StatusContext(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ContextResponse{
		Ancestors:   statusesFromModels(c.Ancestors),
		Descendants: statusesFromModels(c.Descendants),
	})
}

func (h *Handlers) ListReplies(w http.ResponseWriter, r *http.Request) {
	in := service.ListRepliesInput{
		ParentID:  chi.URLParam(r, "id"),
		PageToken: r.URL.Query().Get("page_token"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			apierrors.WriteError(w, r, errInvalidArgument("invalid limit"))
			return
		}

		in.PageSize = int32(n)
	}

	page, err := h.Service.ListReplies(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListRepliesResponse{
		Replies:       statusesFromModels(page.Items),
		NextPageToken: page.NextPageToken,
	})
}

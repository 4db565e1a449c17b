package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/fritter/internal/platform/api"
	"github.com/example/fritter/internal/platform/auth"
	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/store"
)

type createCommentRequest struct {
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type treeResponse struct {
	Comments []comments.Node `json:"comments"`
	Count    int             `json:"count"`
}

type repliesResponse struct {
	Replies []comments.Node `json:"replies"`
	Count   int             `json:"count"`
}

// GetTree handles GET /v1/freets/{freet_id}/comments
func (h *Handlers) GetTree(w http.ResponseWriter, r *http.Request) {
	filter, err := comments.ParseFilter(r.URL.Query().Get("visibility"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	nodes, err := h.Comments.GetTree(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "freet_id"), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, treeResponse{Comments: nodes, Count: comments.Count(nodes)})
}

// CreateComment handles POST /v1/freets/{freet_id}/comments
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r)
		return
	}
	vis, err := comments.ParseFilter(req.Visibility)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	private := vis == store.VisibilityPrivate

	created, err := h.Comments.Create(r.Context(), comments.CreateInput{
		Author:    auth.Viewer(r.Context()),
		Content:   req.Content,
		PostID:    chi.URLParam(r, "freet_id"),
		IsPrivate: &private,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

// GetComment handles GET /v1/comments/{comment_id}
func (h *Handlers) GetComment(w http.ResponseWriter, r *http.Request) {
	c, err := h.Comments.GetComment(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "comment_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

// ListReplies handles GET /v1/comments/{comment_id}/replies
func (h *Handlers) ListReplies(w http.ResponseWriter, r *http.Request) {
	filter, err := comments.ParseFilter(r.URL.Query().Get("visibility"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	nodes, err := h.Comments.ListReplies(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "comment_id"), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, repliesResponse{Replies: nodes, Count: comments.Count(nodes)})
}

// CreateReply handles POST /v1/comments/{comment_id}/replies. A visibility
// in the body is ignored; replies inherit it from their parent.
func (h *Handlers) CreateReply(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r)
		return
	}
	parentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))

	created, err := h.Comments.Create(r.Context(), comments.CreateInput{
		Author:   auth.Viewer(r.Context()),
		Content:  req.Content,
		ParentID: &parentID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r)
		return
	}
	updated, err := h.Comments.Update(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "comment_id"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Comments.Delete(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "comment_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

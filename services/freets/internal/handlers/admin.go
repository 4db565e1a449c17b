package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/fritter/internal/platform/api"
	"github.com/example/fritter/internal/platform/httpserver"
	"github.com/example/fritter/services/freets/internal/store"
)

type putFreetRequest struct {
	AuthorID string `json:"author_id"`
}

// PutFreet handles PUT /v1/admin/freets/{freet_id}. It seeds the local post
// directory when the freets event stream is unavailable.
func (h *Handlers) PutFreet(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "freet_id"))

	var req putFreetRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r)
		return
	}
	author := strings.TrimSpace(req.AuthorID)
	if id == "" || author == "" {
		api.BadRequest(w, "MISSING_FIELD", "freet_id and author_id are required", rid, nil)
		return
	}
	if err := h.Posts.Upsert(r.Context(), store.Post{ID: id, AuthorID: author}); err != nil {
		h.writeError(w, r, fmt.Errorf("upsert freet: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFreet handles DELETE /v1/admin/freets/{freet_id}. Comments of the
// freet are kept.
func (h *Handlers) DeleteFreet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "freet_id"))
	if err := h.Posts.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, fmt.Errorf("delete freet: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

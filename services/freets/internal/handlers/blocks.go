package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/fritter/internal/platform/api"
	"github.com/example/fritter/internal/platform/auth"
	"github.com/example/fritter/services/freets/internal/store"
)

type createBlockRequest struct {
	Blockee string `json:"blockee"`
}

type blocksResponse struct {
	Blocks []store.Block `json:"blocks"`
}

// ListBlocks handles GET /v1/blocks
func (h *Handlers) ListBlocks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Blocks.List(r.Context(), auth.Viewer(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, blocksResponse{Blocks: list})
}

// CreateBlock handles POST /v1/blocks
func (h *Handlers) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r)
		return
	}
	b, err := h.Blocks.Create(r.Context(), auth.Viewer(r.Context()), req.Blockee)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, b)
}

// DeleteBlock handles DELETE /v1/blocks/{block_id}
func (h *Handlers) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.Blocks.Delete(r.Context(), auth.Viewer(r.Context()), chi.URLParam(r, "block_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package handlers exposes the comment, block and post directory operations
// over HTTP.
package handlers

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/fritter/internal/platform/auth"
	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/store"
)

// CommentService is the subset of *comments.Service the handlers call.
type CommentService interface {
	Create(ctx context.Context, in comments.CreateInput) (store.Comment, error)
	GetTree(ctx context.Context, viewer, postID string, filter store.Visibility) ([]comments.Node, error)
	GetComment(ctx context.Context, viewer, commentID string) (store.Comment, error)
	ListReplies(ctx context.Context, viewer, commentID string, filter store.Visibility) ([]comments.Node, error)
	Update(ctx context.Context, editor, commentID, content string) (store.Comment, error)
	Delete(ctx context.Context, requester, commentID string) error
}

// BlockService is the subset of *blocks.Service the handlers call.
type BlockService interface {
	Create(ctx context.Context, blocker, blockee string) (store.Block, error)
	List(ctx context.Context, blocker string) ([]store.Block, error)
	Delete(ctx context.Context, requester, blockID string) error
}

type Handlers struct {
	Comments CommentService
	Blocks   BlockService
	Posts    store.PostStore
	Log      *zap.Logger
}

func (h *Handlers) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// Routes registers every endpoint on r. Reads accept anonymous callers,
// writes require a bearer token and the post directory requires role=admin.
func (h *Handlers) Routes(r chi.Router, verifier auth.JWTVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/freets/{freet_id}/comments", h.GetTree)
		r.Get("/v1/comments/{comment_id}", h.GetComment)
		r.Get("/v1/comments/{comment_id}/replies", h.ListReplies)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/freets/{freet_id}/comments", h.CreateComment)
		r.Post("/v1/comments/{comment_id}/replies", h.CreateReply)
		r.Put("/v1/comments/{comment_id}", h.UpdateComment)
		r.Delete("/v1/comments/{comment_id}", h.DeleteComment)

		if h.Blocks != nil {
			r.Get("/v1/blocks", h.ListBlocks)
			r.Post("/v1/blocks", h.CreateBlock)
			r.Delete("/v1/blocks/{block_id}", h.DeleteBlock)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Put("/v1/admin/freets/{freet_id}", h.PutFreet)
			r.Delete("/v1/admin/freets/{freet_id}", h.DeleteFreet)
		})
	})
}

package store

import (
	"context"
	"time"
)

// Post is the directory entry for a freet: only what comment visibility needs.
type Post struct {
	ID        string    `json:"id" yaml:"id"`
	AuthorID  string    `json:"author_id" yaml:"author_id"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// PostStore resolves freet authors.
type PostStore interface {
	// GetAuthor returns ErrNotFound for an unknown post.
	GetAuthor(ctx context.Context, postID string) (string, error)
	// Upsert ignores p when the stored entry has a later UpdatedAt.
	Upsert(ctx context.Context, p Post) error
	// Delete is a no-op for an unknown post.
	Delete(ctx context.Context, postID string) error
}

package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by point lookups and updates on a missing id.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("store: duplicate")
)

// Visibility restricts list queries on is_private. The zero value matches both.
type Visibility string

const (
	VisibilityAny     Visibility = ""
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Matches reports whether a comment with the given flag passes v.
func (v Visibility) Matches(isPrivate bool) bool {
	switch v {
	case VisibilityPublic:
		return !isPrivate
	case VisibilityPrivate:
		return isPrivate
	default:
		return true
	}
}

// Comment is a single stored comment. PostID is shared by every comment of a
// tree; ParentID is nil for root-level comments.
type Comment struct {
	ID         string    `json:"id" yaml:"id"`
	PostID     string    `json:"freet_id" yaml:"freet_id"`
	AuthorID   string    `json:"author_id" yaml:"author_id"`
	ParentID   *string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Content    string    `json:"content" yaml:"content"`
	IsPrivate  bool      `json:"is_private" yaml:"is_private"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
}

// IsRoot reports whether c hangs directly off the post.
func (c Comment) IsRoot() bool { return c.ParentID == nil }

// CommentStore defines the contract for comment persistence.
// List methods return comments in insertion order.
type CommentStore interface {
	// Insert assigns ID (when empty) and persists c. CreatedAt and
	// ModifiedAt default to the insert time.
	Insert(ctx context.Context, c Comment) (Comment, error)
	GetByID(ctx context.Context, id string) (Comment, error)
	// ListByParentPost lists the post's comments whose parent is parentID;
	// a nil parentID selects root-level comments.
	ListByParentPost(ctx context.Context, postID string, parentID *string, v Visibility) ([]Comment, error)
	ListByParentComment(ctx context.Context, commentID string, v Visibility) ([]Comment, error)
	// ListByPost returns every comment of the post at any depth.
	ListByPost(ctx context.Context, postID string) ([]Comment, error)
	UpdateContent(ctx context.Context, id, content string, modifiedAt time.Time) (Comment, error)
	// DeleteByID removes exactly one record; descendants are untouched.
	DeleteByID(ctx context.Context, id string) (bool, error)
}

func cloneComment(c Comment) Comment {
	if c.ParentID != nil {
		pid := *c.ParentID
		c.ParentID = &pid
	}
	return c
}

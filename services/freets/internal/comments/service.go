package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/fritter/internal/platform/events"
	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

// EventPublisher receives comment lifecycle events. *events.Publisher
// satisfies it, nil receiver included.
type EventPublisher interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// CreateInput is the typed request for Create. IsPrivate is honoured for
// root-level comments only; replies inherit their parent's visibility.
type CreateInput struct {
	Author    string
	Content   string
	PostID    string
	ParentID  *string
	IsPrivate *bool
}

// Service implements comment creation, reads, edits and deletes.
type Service struct {
	comments store.CommentStore
	posts    store.PostStore
	tree     *Assembler
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }

func WithLogger(log *zap.Logger) Option { return func(s *Service) { s.log = log } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithBlockLookup enables pruning of blocked authors on reads.
func WithBlockLookup(b BlockLookup) Option {
	return func(s *Service) { s.tree.HideBlocked(b) }
}

func NewService(comments store.CommentStore, posts store.PostStore, opts ...Option) *Service {
	s := &Service{
		comments: comments,
		posts:    posts,
		tree:     NewAssembler(comments, posts),
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput) (store.Comment, error) {
	if in.Author == Anonymous {
		return store.Comment{}, domain.ErrPermission
	}
	c := store.Comment{AuthorID: in.Author}
	postID := strings.TrimSpace(in.PostID)

	if in.ParentID != nil {
		parent, err := s.load(ctx, strings.TrimSpace(*in.ParentID))
		if err != nil {
			return store.Comment{}, err
		}
		if postID != "" && postID != parent.PostID {
			return store.Comment{}, domain.Invalid(domain.CodeParentPostMismatch, "freet_id",
				"parent comment belongs to a different freet")
		}
		postID = parent.PostID
		author, err := postAuthor(ctx, s.posts, postID)
		if err != nil {
			return store.Comment{}, err
		}
		// Replying must not reveal that a hidden comment exists.
		if !IsVisible(in.Author, author, parent.AuthorID, parent.IsPrivate) {
			return store.Comment{}, domain.NotFound("comment", parent.ID)
		}
		c.ParentID = &parent.ID
		c.IsPrivate = parent.IsPrivate
	} else {
		if postID == "" {
			return store.Comment{}, domain.Invalid(domain.CodeMissingPost, "freet_id", "freet id is required")
		}
		if _, err := postAuthor(ctx, s.posts, postID); err != nil {
			return store.Comment{}, err
		}
		if in.IsPrivate != nil {
			c.IsPrivate = *in.IsPrivate
		}
	}

	// Content is checked only once the target is known to exist, so an
	// unknown freet or parent reports not found first.
	content, err := NormalizeContent(in.Content)
	if err != nil {
		return store.Comment{}, err
	}
	c.Content = content
	c.PostID = postID
	c.CreatedAt = s.now()
	c.ModifiedAt = c.CreatedAt

	created, err := s.comments.Insert(ctx, c)
	if err != nil {
		return store.Comment{}, fmt.Errorf("comments: insert: %w", err)
	}
	s.log.Debug("comment created",
		zap.String("comment_id", created.ID),
		zap.String("freet_id", created.PostID),
		zap.Bool("reply", !created.IsRoot()),
	)
	s.publish(events.SubjectCommentCreated, "comment_created", created)
	return created, nil
}

// GetTree returns the comments of postID that viewer may see.
func (s *Service) GetTree(ctx context.Context, viewer, postID string, filter store.Visibility) ([]Node, error) {
	return s.tree.Build(ctx, strings.TrimSpace(postID), viewer, filter)
}

// GetComment is a point lookup. A comment the viewer may not see is
// reported as not found.
func (s *Service) GetComment(ctx context.Context, viewer, commentID string) (store.Comment, error) {
	c, _, err := s.visibleComment(ctx, viewer, commentID)
	return c, err
}

// ListReplies returns the visible subtree below commentID.
func (s *Service) ListReplies(ctx context.Context, viewer, commentID string, filter store.Visibility) ([]Node, error) {
	anchor, author, err := s.visibleComment(ctx, viewer, commentID)
	if err != nil {
		return nil, err
	}
	return s.tree.Subtree(ctx, anchor, viewer, author, filter)
}

// visibleComment loads commentID together with its post author, resolving
// the author once.
func (s *Service) visibleComment(ctx context.Context, viewer, commentID string) (store.Comment, string, error) {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return store.Comment{}, "", err
	}
	author, err := s.postAuthorOrEmpty(ctx, c.PostID)
	if err != nil {
		return store.Comment{}, "", err
	}
	if !IsVisible(viewer, author, c.AuthorID, c.IsPrivate) {
		return store.Comment{}, "", domain.NotFound("comment", c.ID)
	}
	return c, author, nil
}

// Update replaces the content of an existing comment. Only its author may
// edit it; visibility never changes.
func (s *Service) Update(ctx context.Context, editor, commentID, content string) (store.Comment, error) {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return store.Comment{}, err
	}
	if editor == Anonymous || editor != c.AuthorID {
		return store.Comment{}, domain.ErrPermission
	}
	normalized, err := NormalizeContent(content)
	if err != nil {
		return store.Comment{}, err
	}

	modifiedAt := s.now()
	if modifiedAt.Before(c.ModifiedAt) {
		modifiedAt = c.ModifiedAt
	}
	updated, err := s.comments.UpdateContent(ctx, c.ID, normalized, modifiedAt)
	if errors.Is(err, store.ErrNotFound) {
		// Lost a race with a delete.
		return store.Comment{}, domain.NotFound("comment", c.ID)
	}
	if err != nil {
		return store.Comment{}, fmt.Errorf("comments: update: %w", err)
	}
	s.publish(events.SubjectCommentUpdated, "comment_updated", updated)
	return updated, nil
}

// Delete removes one comment. Replies stay in the store and drop out of
// tree reads.
func (s *Service) Delete(ctx context.Context, requester, commentID string) error {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if requester == Anonymous || requester != c.AuthorID {
		return domain.ErrPermission
	}
	ok, err := s.comments.DeleteByID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("comments: delete: %w", err)
	}
	if !ok {
		return domain.NotFound("comment", c.ID)
	}
	s.publish(events.SubjectCommentDeleted, "comment_deleted", c)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (store.Comment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Comment{}, domain.NotFound("comment", id)
	}
	c, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Comment{}, domain.NotFound("comment", id)
	}
	if err != nil {
		return store.Comment{}, fmt.Errorf("comments: get: %w", err)
	}
	return c, nil
}

// postAuthorOrEmpty tolerates a freet that has left the directory: its
// comments then follow the rules with no post-author privilege.
func (s *Service) postAuthorOrEmpty(ctx context.Context, postID string) (string, error) {
	author, err := postAuthor(ctx, s.posts, postID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return author, err
}

func (s *Service) publish(subject, name string, c store.Comment) {
	if s.events == nil {
		return
	}
	props := map[string]any{
		"comment_id": c.ID,
		"freet_id":   c.PostID,
		"is_private": c.IsPrivate,
	}
	if c.ParentID != nil {
		props["parent_id"] = *c.ParentID
	}
	s.events.Publish(subject, name, c.AuthorID, props)
}

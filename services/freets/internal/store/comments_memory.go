package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memComment struct {
	c   Comment
	seq uint64
}

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	seq      uint64
	comments map[string]memComment
	now      func() time.Time
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments: make(map[string]memComment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryCommentStore) Insert(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.comments[c.ID]; exists {
		return Comment{}, ErrDuplicate
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.ModifiedAt.IsZero() {
		c.ModifiedAt = c.CreatedAt
	}
	s.seq++
	s.comments[c.ID] = memComment{c: cloneComment(c), seq: s.seq}
	return cloneComment(c), nil
}

func (s *InMemoryCommentStore) GetByID(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return cloneComment(m.c), nil
}

func (s *InMemoryCommentStore) ListByParentPost(_ context.Context, postID string, parentID *string, v Visibility) ([]Comment, error) {
	return s.list(func(c Comment) bool {
		if c.PostID != postID || !v.Matches(c.IsPrivate) {
			return false
		}
		if parentID == nil {
			return c.ParentID == nil
		}
		return c.ParentID != nil && *c.ParentID == *parentID
	}), nil
}

func (s *InMemoryCommentStore) ListByParentComment(_ context.Context, commentID string, v Visibility) ([]Comment, error) {
	return s.list(func(c Comment) bool {
		return c.ParentID != nil && *c.ParentID == commentID && v.Matches(c.IsPrivate)
	}), nil
}

func (s *InMemoryCommentStore) ListByPost(_ context.Context, postID string) ([]Comment, error) {
	return s.list(func(c Comment) bool { return c.PostID == postID }), nil
}

func (s *InMemoryCommentStore) list(keep func(Comment) bool) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []memComment
	for _, m := range s.comments {
		if keep(m.c) {
			hits = append(hits, m)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	out := make([]Comment, len(hits))
	for i, m := range hits {
		out[i] = cloneComment(m.c)
	}
	return out
}

func (s *InMemoryCommentStore) UpdateContent(_ context.Context, id, content string, modifiedAt time.Time) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	m.c.Content = content
	m.c.ModifiedAt = modifiedAt
	s.comments[id] = m
	return cloneComment(m.c), nil
}

func (s *InMemoryCommentStore) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryPostStore is a development-only post directory.
type InMemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]Post
}

func NewInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{posts: make(map[string]Post)}
}

func (s *InMemoryPostStore) GetAuthor(_ context.Context, postID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok {
		return "", ErrNotFound
	}
	return p.AuthorID, nil
}

func (s *InMemoryPostStore) Upsert(_ context.Context, p Post) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.posts[p.ID]; ok && cur.UpdatedAt.After(p.UpdatedAt) {
		return nil
	}
	s.posts[p.ID] = p
	return nil
}

func (s *InMemoryPostStore) Delete(_ context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, postID)
	return nil
}

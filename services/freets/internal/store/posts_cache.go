package store

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// AuthorCache is the subset of cache.RedisCache used for author lookups.
type AuthorCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	SetNX(ctx context.Context, key string, value any) (bool, error)
	SetFor(ctx context.Context, key string, value any, ttl time.Duration) error
}

// TombstoneTTL bounds how long a write blocks refills of its key. An empty
// author is the tombstone; it reads as a miss.
const TombstoneTTL = 30 * time.Second

// CachedPostStore is a read-through cache in front of a PostStore. Cache
// calls go through a circuit breaker; any cache failure falls back to next.
type CachedPostStore struct {
	next  PostStore
	cache AuthorCache
	cb    *gobreaker.CircuitBreaker
	log   *zap.Logger
}

func NewCachedPostStore(next PostStore, cache AuthorCache, cb *gobreaker.CircuitBreaker, log *zap.Logger) *CachedPostStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedPostStore{next: next, cache: cache, cb: cb, log: log}
}

type cacheLookup struct {
	author string
	hit    bool
}

func (s *CachedPostStore) GetAuthor(ctx context.Context, postID string) (string, error) {
	res, err := s.guard(func() (interface{}, error) {
		var author string
		hit, err := s.cache.Get(ctx, postID, &author)
		return cacheLookup{author: author, hit: hit}, err
	})
	if err != nil {
		s.log.Debug("author cache get failed", zap.String("freet_id", postID), zap.Error(err))
	} else if l := res.(cacheLookup); l.hit && l.author != "" {
		return l.author, nil
	}

	author, err := s.next.GetAuthor(ctx, postID)
	if err != nil {
		return "", err
	}
	// SETNX never replaces a tombstone written by a concurrent Upsert or Delete.
	if _, err := s.guard(func() (interface{}, error) { return s.cache.SetNX(ctx, postID, author) }); err != nil {
		s.log.Debug("author cache set failed", zap.String("freet_id", postID), zap.Error(err))
	}
	return author, nil
}

func (s *CachedPostStore) Upsert(ctx context.Context, p Post) error {
	if err := s.next.Upsert(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

func (s *CachedPostStore) Delete(ctx context.Context, postID string) error {
	if err := s.next.Delete(ctx, postID); err != nil {
		return err
	}
	s.invalidate(ctx, postID)
	return nil
}

func (s *CachedPostStore) invalidate(ctx context.Context, postID string) {
	if _, err := s.guard(func() (interface{}, error) { return nil, s.cache.SetFor(ctx, postID, "", TombstoneTTL) }); err != nil {
		s.log.Warn("author cache invalidate failed", zap.String("freet_id", postID), zap.Error(err))
	}
}

func (s *CachedPostStore) guard(fn func() (interface{}, error)) (interface{}, error) {
	if s.cb == nil {
		return fn()
	}
	return s.cb.Execute(fn)
}

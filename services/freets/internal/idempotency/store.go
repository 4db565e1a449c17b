// Package idempotency deduplicates post directory events by event id.
//
// Primary backend: Redis SETNX with TTL.
// Fallback: Postgres INSERT ... ON CONFLICT on processed_events.
// If neither is configured, an in-memory store is used (development only).
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrMemoryInProduction is returned by NewStore when no shared backend is
// configured in production.
var ErrMemoryInProduction = errors.New("production requires REDIS_URL or DATABASE_URL for idempotency; in-memory store is not allowed")

// Store checks whether an event has already been processed and marks it.
type Store interface {
	// Check returns true if eventID was already processed.
	// If not seen, it atomically marks it as processed.
	Check(ctx context.Context, eventID string) (duplicate bool, err error)
	// Release forgets eventID so a redelivery is processed again. Used when
	// handling failed after Check marked the event.
	Release(ctx context.Context, eventID string) error
}

// NewStore creates the best available store: Redis > Postgres > in-memory.
func NewStore(rdb *redis.Client, pool *pgxpool.Pool, ttl time.Duration, isProd bool) (Store, error) {
	if rdb != nil {
		return newRedisStore(rdb, ttl), nil
	}
	if pool != nil {
		return newPostgresStore(pool, ttl), nil
	}
	if isProd {
		return nil, ErrMemoryInProduction
	}
	return newMemoryStore(ttl), nil
}

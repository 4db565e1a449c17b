package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPostStore keeps the freet directory in the freets table.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPostStore(pool *pgxpool.Pool) *PostgresPostStore {
	return &PostgresPostStore{pool: pool}
}

func (s *PostgresPostStore) GetAuthor(ctx context.Context, postID string) (string, error) {
	var author string
	err := s.pool.QueryRow(ctx, `SELECT author_id FROM freets WHERE id = $1`, postID).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return author, err
}

func (s *PostgresPostStore) Upsert(ctx context.Context, p Post) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	// Older events never overwrite newer directory entries.
	const q = `INSERT INTO freets (id, author_id, updated_at) VALUES ($1, $2, $3)
	           ON CONFLICT (id) DO UPDATE SET author_id = EXCLUDED.author_id, updated_at = EXCLUDED.updated_at
	           WHERE freets.updated_at <= EXCLUDED.updated_at`
	_, err := s.pool.Exec(ctx, q, p.ID, p.AuthorID, p.UpdatedAt)
	return err
}

func (s *PostgresPostStore) Delete(ctx context.Context, postID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM freets WHERE id = $1`, postID)
	return err
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlockStore relies on UNIQUE (blocker_id, blockee_id) for duplicates.
type PostgresBlockStore struct {
	pool *pgxpool.Pool
}

func NewPostgresBlockStore(pool *pgxpool.Pool) *PostgresBlockStore {
	return &PostgresBlockStore{pool: pool}
}

func (s *PostgresBlockStore) Insert(ctx context.Context, b Block) (Block, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO blocks (id, blocker_id, blockee_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, q, b.ID, b.BlockerID, b.BlockeeID, b.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Block{}, ErrDuplicate
		}
		return Block{}, err
	}
	return b, nil
}

func (s *PostgresBlockStore) GetByID(ctx context.Context, id string) (Block, error) {
	const q = `SELECT id, blocker_id, blockee_id, created_at FROM blocks WHERE id = $1`
	var b Block
	err := s.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.BlockerID, &b.BlockeeID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Block{}, ErrNotFound
	}
	return b, err
}

func (s *PostgresBlockStore) ListByBlocker(ctx context.Context, blockerID string) ([]Block, error) {
	const q = `SELECT id, blocker_id, blockee_id, created_at FROM blocks
	           WHERE blocker_id = $1 ORDER BY seq ASC`
	rows, err := s.pool.Query(ctx, q, blockerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Block{}
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.BlockerID, &b.BlockeeID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresBlockStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

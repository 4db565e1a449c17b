package store

import (
	"context"
	"time"
)

// Block records that BlockerID no longer wants to see BlockeeID.
type Block struct {
	ID        string    `json:"id"`
	BlockerID string    `json:"blocker_id"`
	BlockeeID string    `json:"blockee_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockStore enforces one block per (blocker, blockee) pair.
type BlockStore interface {
	// Insert returns ErrDuplicate when the pair already exists.
	Insert(ctx context.Context, b Block) (Block, error)
	GetByID(ctx context.Context, id string) (Block, error)
	ListByBlocker(ctx context.Context, blockerID string) ([]Block, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type blockPair struct{ blocker, blockee string }

// InMemoryBlockStore is a development-only BlockStore.
type InMemoryBlockStore struct {
	mu     sync.RWMutex
	seq    uint64
	blocks map[string]Block
	order  map[string]uint64
	pairs  map[blockPair]string
}

func NewInMemoryBlockStore() *InMemoryBlockStore {
	return &InMemoryBlockStore{
		blocks: make(map[string]Block),
		order:  make(map[string]uint64),
		pairs:  make(map[blockPair]string),
	}
}

func (s *InMemoryBlockStore) Insert(_ context.Context, b Block) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := blockPair{b.BlockerID, b.BlockeeID}
	if _, dup := s.pairs[key]; dup {
		return Block{}, ErrDuplicate
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.seq++
	s.blocks[b.ID] = b
	s.order[b.ID] = s.seq
	s.pairs[key] = b.ID
	return b, nil
}

func (s *InMemoryBlockStore) GetByID(_ context.Context, id string) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return Block{}, ErrNotFound
	}
	return b, nil
}

func (s *InMemoryBlockStore) ListByBlocker(_ context.Context, blockerID string) ([]Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Block{}
	for _, b := range s.blocks {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out, nil
}

func (s *InMemoryBlockStore) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok {
		return false, nil
	}
	delete(s.blocks, id)
	delete(s.order, id)
	delete(s.pairs, blockPair{b.BlockerID, b.BlockeeID})
	return true, nil
}

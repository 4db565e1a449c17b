// Package blocks lets a user hide another user's comments from their own
// reads.
package blocks

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

// EventPublisher receives block lifecycle events.
type EventPublisher interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

type Service struct {
	store  store.BlockStore
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(s store.BlockStore, pub EventPublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, events: pub, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, blocker, blockee string) (store.Block, error) {
	if blocker == "" {
		return store.Block{}, domain.ErrPermission
	}
	blockee = strings.TrimSpace(blockee)
	if blockee == "" {
		return store.Block{}, domain.Invalid(domain.CodeMissingBlockee, "blockee", "blockee is required")
	}
	if blockee == blocker {
		return store.Block{}, domain.Invalid(domain.CodeSelfBlock, "blockee", "you cannot block yourself")
	}

	b, err := s.store.Insert(ctx, store.Block{BlockerID: blocker, BlockeeID: blockee, CreatedAt: s.now()})
	if errors.Is(err, store.ErrDuplicate) {
		return store.Block{}, fmt.Errorf("user %s is already blocked: %w", blockee, domain.ErrConflict)
	}
	if err != nil {
		return store.Block{}, fmt.Errorf("blocks: insert: %w", err)
	}
	s.publish(events.SubjectBlockCreated, "block_created", b)
	return b, nil
}

func (s *Service) List(ctx context.Context, blocker string) ([]store.Block, error) {
	if blocker == "" {
		return nil, domain.ErrPermission
	}
	out, err := s.store.ListByBlocker(ctx, blocker)
	if err != nil {
		return nil, fmt.Errorf("blocks: list: %w", err)
	}
	if out == nil {
		out = []store.Block{}
	}
	return out, nil
}

// Delete removes a block. Only the blocker may lift it.
func (s *Service) Delete(ctx context.Context, requester, blockID string) error {
	b, err := s.store.GetByID(ctx, blockID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NotFound("block", blockID)
	}
	if err != nil {
		return fmt.Errorf("blocks: get: %w", err)
	}
	if requester == "" || requester != b.BlockerID {
		return domain.ErrPermission
	}
	ok, err := s.store.DeleteByID(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("blocks: delete: %w", err)
	}
	if !ok {
		return domain.NotFound("block", blockID)
	}
	s.publish(events.SubjectBlockDeleted, "block_deleted", b)
	return nil
}

// BlockedBy returns the set of users viewer has blocked.
func (s *Service) BlockedBy(ctx context.Context, viewer string) (map[string]struct{}, error) {
	list, err := s.store.ListByBlocker(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("blocks: list: %w", err)
	}
	set := make(map[string]struct{}, len(list))
	for _, b := range list {
		set[b.BlockeeID] = struct{}{}
	}
	return set, nil
}

func (s *Service) publish(subject, name string, b store.Block) {
	if s.events == nil {
		return
	}
	s.events.Publish(subject, name, b.BlockerID, map[string]any{
		"block_id":   b.ID,
		"blockee_id": b.BlockeeID,
	})
}

// Package worker keeps the local freet directory in sync with the freets
// event stream.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/fritter/internal/platform/events"
	"github.com/example/fritter/services/freets/internal/idempotency"
	"github.com/example/fritter/services/freets/internal/store"
)

// DurableName is the JetStream consumer shared by every replica.
const DurableName = "freets_comments_posts"

// errPoison marks a message that can never be processed. It is acked so the
// stream moves on.
var errPoison = errors.New("poison message")

type PostsConsumer struct {
	Posts         store.PostStore
	Seen          idempotency.Store
	Log           *zap.Logger
	BatchSize     int
	BatchInterval time.Duration
}

// Run pulls freets.posts.* until ctx is cancelled.
func (c *PostsConsumer) Run(ctx context.Context, js nats.JetStreamContext) error {
	log := c.logger()
	sub, err := js.PullSubscribe(events.SubjectPostsAll, DurableName, nats.BindStream(events.StreamName))
	if err != nil {
		return fmt.Errorf("posts consumer: subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	batch := c.BatchSize
	if batch <= 0 {
		batch = 100
	}
	wait := c.BatchInterval
	if wait <= 0 {
		wait = 2 * time.Second
	}

	log.Info("posts consumer started", zap.String("durable", DurableName))
	for {
		if ctx.Err() != nil {
			return nil
		}
		msgs, err := sub.Fetch(batch, nats.MaxWait(wait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Warn("posts consumer: fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, m := range msgs {
			c.process(ctx, m)
		}
	}
}

func (c *PostsConsumer) process(ctx context.Context, m *nats.Msg) {
	log := c.logger()
	err := c.handle(ctx, m.Subject, m.Data)
	switch {
	case err == nil:
		if err := m.Ack(); err != nil {
			log.Warn("posts consumer: ack", zap.Error(err))
		}
	case errors.Is(err, errPoison):
		log.Error("posts consumer: dropping message", zap.String("subject", m.Subject), zap.Error(err))
		if err := m.Ack(); err != nil {
			log.Warn("posts consumer: ack", zap.Error(err))
		}
	default:
		log.Warn("posts consumer: will retry", zap.String("subject", m.Subject), zap.Error(err))
		if err := m.Nak(); err != nil {
			log.Warn("posts consumer: nak", zap.Error(err))
		}
	}
}

// handle applies one post event to the directory.
func (c *PostsConsumer) handle(ctx context.Context, subject string, data []byte) error {
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("%w: decode: %v", errPoison, err)
	}
	if strings.TrimSpace(ev.EventID) == "" {
		return fmt.Errorf("%w: missing event_id", errPoison)
	}
	freetID := stringProp(ev.Properties, "freet_id")
	if freetID == "" {
		return fmt.Errorf("%w: missing freet_id", errPoison)
	}

	var apply func() error
	switch subject {
	case events.SubjectPostCreated:
		author := stringProp(ev.Properties, "author_id")
		if author == "" {
			author = strings.TrimSpace(ev.UserID)
		}
		if author == "" {
			return fmt.Errorf("%w: missing author_id", errPoison)
		}
		apply = func() error {
			return c.Posts.Upsert(ctx, store.Post{ID: freetID, AuthorID: author, UpdatedAt: ev.OccurredAt.UTC()})
		}
	case events.SubjectPostDeleted:
		apply = func() error { return c.Posts.Delete(ctx, freetID) }
	default:
		return fmt.Errorf("%w: unexpected subject %q", errPoison, subject)
	}

	if c.Seen != nil {
		dup, err := c.Seen.Check(ctx, ev.EventID)
		if err != nil {
			return fmt.Errorf("idempotency check: %w", err)
		}
		if dup {
			c.logger().Debug("posts consumer: duplicate", zap.String("event_id", ev.EventID))
			return nil
		}
	}
	if err := apply(); err != nil {
		if c.Seen != nil {
			if rerr := c.Seen.Release(ctx, ev.EventID); rerr != nil {
				c.logger().Warn("posts consumer: release", zap.String("event_id", ev.EventID), zap.Error(rerr))
			}
		}
		return fmt.Errorf("apply %s: %w", subject, err)
	}
	return nil
}

func (c *PostsConsumer) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func stringProp(props map[string]any, key string) string {
	v, _ := props[key].(string)
	return strings.TrimSpace(v)
}

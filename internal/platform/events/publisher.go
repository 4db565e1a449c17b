// Package events publishes domain events to NATS JetStream.
// Publishing is fire-and-forget: a failure is logged and never reaches the caller.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	StreamName = "FREETS"

	SubjectCommentCreated = "freets.comments.created"
	SubjectCommentUpdated = "freets.comments.updated"
	SubjectCommentDeleted = "freets.comments.deleted"
	SubjectBlockCreated   = "freets.blocks.created"
	SubjectBlockDeleted   = "freets.blocks.deleted"

	// Inbound: the post directory is fed from these.
	SubjectPostCreated = "freets.posts.created"
	SubjectPostDeleted = "freets.posts.deleted"
	SubjectPostsAll    = "freets.posts.*"
)

// Event is the envelope sent on every freets.* subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher sends events through JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher. Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log, now: time.Now}
}

// Envelope builds the event that Publish would send.
func (p *Publisher) Envelope(eventName, userID string, props map[string]any) Event {
	now := time.Now
	if p != nil && p.now != nil {
		now = p.now
	}
	return Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: now().UTC(),
		Properties: props,
	}
}

// Publish sends an event asynchronously. Safe on a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(p.Envelope(eventName, userID, props))
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// EnsureStream creates the FREETS stream, or widens its subjects when an
// older definition is missing freets.>.
func EnsureStream(js nats.JetStreamContext) error {
	const subjects = "freets.>"
	info, err := js.StreamInfo(StreamName)
	if err == nil {
		for _, s := range info.Config.Subjects {
			if s == subjects {
				return nil
			}
		}
		cfg := info.Config
		cfg.Subjects = []string{subjects}
		_, err = js.UpdateStream(&cfg)
		return err
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{subjects},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

package store

import (
	"context"
	"time"

	"subwise/internal/core"
)

type EventType string

const (
	EventCreated EventType = "subscription.created"
	EventUpdated EventType = "subscription.updated"
	EventDeleted EventType = "subscription.deleted"
	EventRenewed EventType = "subscription.renewed"
)

// Event describes a committed change to the collection. Subscription is nil
// for deletions.
type Event struct {
	Type         EventType
	ID           string
	Subscription *core.Subscription
	At           time.Time
}

// Publisher receives events after each successful write.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

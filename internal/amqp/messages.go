package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"subwise/internal/core"
	"subwise/internal/store"
)

// EventMessage is the change-feed payload for one committed mutation.
// Subscription is omitted for deletions.
type EventMessage struct {
	Type         string       `json:"type"`
	ID           string       `json:"id"`
	Subscription *core.Record `json:"subscription,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// NewEventMessage converts a store event to its wire shape.
func NewEventMessage(e store.Event) *EventMessage {
	msg := &EventMessage{
		Type:      string(e.Type),
		ID:        e.ID,
		Timestamp: e.At,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if e.Subscription != nil {
		rec := e.Subscription.Record()
		msg.Subscription = &rec
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes a delivery body.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.ID == "" {
		return nil, errors.New("event message requires type and id")
	}
	return &msg, nil
}

// Package realtime carries per-user document change notifications between API
// instances. Clients receive them over Server-Sent Events and re-fetch their list.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventType mirrors the row operation that changed a document.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent tells a subscriber that one of its documents changed.
type ChangeEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	At         time.Time `json:"at"`
}

// Publisher emits change events on a user's channel.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev ChangeEvent) error
}

// Subscription is a live stream of change events for one user.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Subscriber opens change streams.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// Channel returns the pub/sub channel name of a user.
func Channel(userID string) string {
	return "doctrack:documents:" + userID
}

// Encode serializes an event for the wire.
func Encode(ev ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses an event received from the wire.
func Decode(payload []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	switch ev.Type {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return ChangeEvent{}, fmt.Errorf("decode change event: unknown type %q", ev.Type)
	}
	return ev, nil
}

// Discard is a Publisher that drops every event. It is used when no feed backend is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, ChangeEvent) error { return nil }

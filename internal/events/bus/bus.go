// Package bus provides the event bus that carries chat traffic between
// transports and the chat service.
package bus

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope carried on every subject.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent stamps a fresh ID and the current UTC time.
func NewEvent(eventType, source string, data map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// String returns Data[key] if it is a string.
func (e *Event) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// EventHandler errors are logged by the bus; they never reach the publisher.
type EventHandler func(ctx context.Context, event *Event) error

type Subscription interface {
	Unsubscribe() error
	IsValid() bool
}

// EventBus is implemented in process and over NATS. Events on one
// subscription are delivered in publish order.
type EventBus interface {
	Publish(ctx context.Context, subject string, event *Event) error
	Subscribe(subject string, handler EventHandler) (Subscription, error)
	Close()
	IsConnected() bool
}

// ErrClosed is returned by a bus after Close.
var ErrClosed = errors.New("event bus is closed")

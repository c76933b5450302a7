package bus

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
)

const subscriptionBuffer = 256

// MemoryEventBus implements EventBus in process. Each subscription has its
// own delivery goroutine, so a slow handler delays only its own events.
type MemoryEventBus struct {
	mu     sync.RWMutex
	subs   []*memorySubscription
	closed bool

	running sync.WaitGroup
	logger  *logger.Logger
}

type delivery struct {
	ctx   context.Context
	event *Event
}

// memorySubscription owns a queue and the goroutine draining it.
type memorySubscription struct {
	bus      *MemoryEventBus
	subject  string
	pattern  []string // subject tokens
	handler  EventHandler
	inbox    chan delivery
	done     chan struct{}
	stopOnce sync.Once
}

// Unsubscribe removes the subscription. Events already queued are dropped.
func (s *memorySubscription) Unsubscribe() error {
	b := s.bus
	b.mu.Lock()
	b.subs = slices.DeleteFunc(b.subs, func(other *memorySubscription) bool { return other == s })
	b.mu.Unlock()

	s.stop()
	return nil
}

func (s *memorySubscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *memorySubscription) IsValid() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *memorySubscription) run() {
	defer s.bus.running.Done()
	for {
		select {
		case <-s.done:
			return
		case d := <-s.inbox:
			if err := s.handler(d.ctx, d.event); err != nil {
				s.bus.logger.Error("Event handler failed",
					zap.String("subject", s.subject),
					zap.String("event_type", d.event.Type),
					zap.Error(err))
			}
		}
	}
}

func NewMemoryEventBus(log *logger.Logger) *MemoryEventBus {
	return &MemoryEventBus{logger: log.Component("memory-bus")}
}

// Publish queues the event for every matching subscription. It blocks while a
// subscriber's queue is full, until ctx is done.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	var targets []*memorySubscription
	for _, sub := range b.subs {
		if subjectMatches(sub.pattern, subject) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	// Handlers outlive the publisher's request scope.
	deliverCtx := context.WithoutCancel(ctx)
	for _, sub := range targets {
		select {
		case sub.inbox <- delivery{ctx: deliverCtx, event: event}:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.logger.Debug("Event delivered",
		zap.String("subject", subject),
		zap.String("type", event.Type),
		zap.Int("subscribers", len(targets)))

	return nil
}

// Subscribe starts a delivery goroutine for subject, which may contain
// "*" and ">" wildcards.
func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		pattern: strings.Split(subject, "."),
		handler: handler,
		inbox:   make(chan delivery, subscriptionBuffer),
		done:    make(chan struct{}),
	}
	b.subs = append(b.subs, sub)

	b.running.Add(1)
	go sub.run()

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Close stops every subscription and waits for running handlers to return.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	b.running.Wait()
	b.logger.Debug("Memory event bus closed")
}

// IsConnected reports true until Close.
func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

// subjectMatches reports whether subject matches a NATS-style pattern:
// "*" matches exactly one token, a trailing ">" matches one or more.
func subjectMatches(pattern []string, subject string) bool {
	tokens := strings.Split(subject, ".")
	for i, p := range pattern {
		switch {
		case p == ">" && i == len(pattern)-1:
			return len(tokens) > i
		case i >= len(tokens):
			return false
		case p != "*" && p != tokens[i]:
			return false
		}
	}
	return len(tokens) == len(pattern)
}

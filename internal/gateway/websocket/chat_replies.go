package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/events"
	"github.com/kandev/dbchat/internal/events/bus"
	ws "github.com/kandev/dbchat/pkg/websocket"
)

const repliesSource = "ws-chat-replies"

// ChatReplyBroadcaster pushes chat.reply.* bus events to the clients bound to
// the replied-to user.
type ChatReplyBroadcaster struct {
	hub    *Hub
	bus    bus.EventBus
	sub    bus.Subscription
	logger *logger.Logger

	mu      sync.Mutex
	pending map[string]chan struct{} // flush markers in flight
}

// RegisterChatReplies subscribes to every user's replies until ctx is done.
func RegisterChatReplies(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) (*ChatReplyBroadcaster, error) {
	b := &ChatReplyBroadcaster{
		hub:     hub,
		bus:     eventBus,
		logger:  log.Component(repliesSource),
		pending: make(map[string]chan struct{}),
	}

	sub, err := eventBus.Subscribe(events.SubjectChatReplyAll, b.handle)
	if err != nil {
		return nil, err
	}
	b.sub = sub

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return b, nil
}

// Flush returns once every reply published before the call has been queued
// on the sockets. It relies on the bus delivering one subscription's events
// in publish order.
func (b *ChatReplyBroadcaster) Flush(ctx context.Context) error {
	marker := uuid.NewString()
	seen := make(chan struct{})
	b.mu.Lock()
	b.pending[marker] = seen
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, marker)
		b.mu.Unlock()
	}()

	ev := bus.NewEvent(events.ChatReplyFlush, repliesSource, map[string]any{events.KeyMarker: marker})
	if err := b.bus.Publish(ctx, events.SubjectChatReplyFlush, ev); err != nil {
		return fmt.Errorf("publish flush marker: %w", err)
	}
	select {
	case <-seen:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *ChatReplyBroadcaster) handle(_ context.Context, event *bus.Event) error {
	if event.Type == events.ChatReplyFlush {
		b.markSeen(event.String(events.KeyMarker))
		return nil
	}

	userID := event.String(events.KeyUserID)
	if userID == "" {
		return nil
	}
	msg, err := ws.NewNotification(ws.ActionChatReply, ws.ChatMessagePayload{
		UserID: userID,
		Text:   event.String(events.KeyText),
	})
	if err != nil {
		b.logger.Error("failed to build chat reply notification", zap.Error(err))
		return nil
	}
	b.hub.SendToUser(userID, msg)
	return nil
}

// markSeen ignores markers from other processes sharing the bus.
func (b *ChatReplyBroadcaster) markSeen(marker string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seen, ok := b.pending[marker]; ok {
		close(seen)
		delete(b.pending, marker)
	}
}

func (b *ChatReplyBroadcaster) Close() {
	if b.sub != nil && b.sub.IsValid() {
		_ = b.sub.Unsubscribe()
	}
}

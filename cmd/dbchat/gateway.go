package main

import (
	"context"

	"github.com/kandev/dbchat/internal/chat"
	"github.com/kandev/dbchat/internal/common/logger"
	gateways "github.com/kandev/dbchat/internal/gateway/websocket"
)

const wsSource = "ws-gateway"

// provideGateway builds the WebSocket gateway. Chat lines are published on
// the bus so bridges and the socket share one path into the service; replies
// come back through the returned broadcaster.
func provideGateway(ctx context.Context, log *logger.Logger, core *chatCore) (*gateways.Gateway, *gateways.ChatReplyBroadcaster, error) {
	eventBus := core.bus.Bus
	inbound := func(ctx context.Context, userID, text string) error {
		select {
		case <-core.service.Stopped():
			return chat.ErrStopped
		default:
		}
		return chat.PublishInbound(ctx, eventBus, wsSource, chat.Inbound{UserID: userID, Text: text})
	}

	gateway := gateways.NewGateway(inbound, core.status, log)
	replies, err := gateways.RegisterChatReplies(ctx, eventBus, gateway.Hub, log)
	if err != nil {
		return nil, nil, err
	}
	return gateway, replies, nil
}

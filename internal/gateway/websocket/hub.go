// Package websocket serves the chat protocol over WebSocket connections.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
	ws "github.com/kandev/dbchat/pkg/websocket"
)

// InboundFunc hands a chat line typed over a connection to the chat service.
type InboundFunc func(ctx context.Context, userID, text string) error

type clientSet map[*Client]struct{}

// Hub tracks open sockets and which operator each one speaks for. Replies
// for an operator fan out to every socket bound to them.
type Hub struct {
	mu      sync.RWMutex
	clients clientSet
	byUser  map[string]clientSet
	closed  bool

	dispatcher *ws.Dispatcher
	inbound    InboundFunc
	logger     *logger.Logger
}

func NewHub(dispatcher *ws.Dispatcher, inbound InboundFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(clientSet),
		byUser:     make(map[string]clientSet),
		dispatcher: dispatcher,
		inbound:    inbound,
		logger:     log.Component("ws-hub"),
	}
}

// Run blocks until ctx is done, then closes every socket and refuses new
// ones.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	n := len(h.clients)
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(clientSet)
	h.byUser = make(map[string]clientSet)
	h.mu.Unlock()

	h.logger.Info("WebSocket hub stopped", zap.Int("closed_clients", n))
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	return true
}

// Unregister closes the client's queue. Calling it twice is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.unbindLocked(client)
	close(client.send)
	h.logger.Debug("Client gone", zap.String("client_id", client.ID))
}

// BindUser routes userID's replies to client. Binding a client to another
// user moves it.
func (h *Hub) BindUser(client *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok || client.userID == userID {
		return
	}
	h.unbindLocked(client)

	set, ok := h.byUser[userID]
	if !ok {
		set = make(clientSet)
		h.byUser[userID] = set
	}
	set[client] = struct{}{}
	client.userID = userID

	h.logger.Debug("Client bound",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))
}

func (h *Hub) unbindLocked(client *Client) {
	if client.userID == "" {
		return
	}
	if set := h.byUser[client.userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	client.userID = ""
}

// SendToUser queues msg on every socket bound to userID. Users with no
// socket are skipped silently.
func (h *Hub) SendToUser(userID string, msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.byUser[userID] {
		h.enqueueLocked(client, data)
	}
}

func (h *Hub) send(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; ok {
		h.enqueueLocked(client, data)
	}
}

// enqueueLocked drops the frame rather than block on a stalled socket.
func (h *Hub) enqueueLocked(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Dropping frame for slow client", zap.String("client_id", client.ID))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

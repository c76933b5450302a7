package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
	ws "github.com/kandev/dbchat/pkg/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10 // must stay under pongWait

	// Chat lines are short; 64KB leaves room for pasted column clauses.
	maxFrameSize = 64 * 1024
	sendBuffer   = 256
)

// Client is one socket. It may speak for a single operator at a time, the
// one named by its latest chat.message.
type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	userID string // guarded by hub.mu
	logger *logger.Logger
}

func NewClient(id string, conn *websocket.Conn, hub *Hub, log *logger.Logger) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		logger: log.WithFields(zap.String("client_id", id)),
	}
}

// serve runs the writer in the background and reads until the peer goes
// away. The client is unregistered on return.
func (c *Client) serve(ctx context.Context) {
	go c.writeLoop()
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Socket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var msg ws.Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			c.logger.Debug("Rejecting malformed frame", zap.Error(err))
			c.fail(&ws.Message{}, ws.ErrorCodeBadRequest, "Invalid message format")
			continue
		}
		c.route(ctx, &msg)
	}
}

func (c *Client) route(ctx context.Context, msg *ws.Message) {
	c.logger.Debug("Frame received", zap.String("action", msg.Action), zap.String("id", msg.ID))

	if msg.Action == ws.ActionChatMessage {
		c.chat(ctx, msg)
		return
	}

	resp, err := c.hub.dispatcher.Dispatch(ctx, msg)
	switch {
	case err != nil:
		c.logger.Error("Action failed", zap.String("action", msg.Action), zap.Error(err))
		c.fail(msg, ws.ErrorCodeInternalError, "internal error")
	case resp != nil:
		c.write(resp)
	}
}

// chat binds the socket to the named operator and hands the line to the
// chat service. Replies arrive later as chat.reply notifications.
func (c *Client) chat(ctx context.Context, msg *ws.Message) {
	var line ws.ChatMessagePayload
	if err := msg.ParsePayload(&line); err != nil {
		c.fail(msg, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error())
		return
	}
	userID := strings.TrimSpace(line.UserID)
	if userID == "" {
		c.fail(msg, ws.ErrorCodeValidation, "user_id is required")
		return
	}

	c.hub.BindUser(c, userID)
	if err := c.hub.inbound(ctx, userID, line.Text); err != nil {
		c.logger.Warn("Chat line not accepted", zap.String("user_id", userID), zap.Error(err))
		c.fail(msg, ws.ErrorCodeUnavailable, "chat service unavailable")
		return
	}
	c.respond(ws.NewResponse(msg.ID, msg.Action, ws.ChatAcceptedPayload{Accepted: true}))
}

func (c *Client) fail(msg *ws.Message, code, text string) {
	c.respond(ws.NewError(msg.ID, msg.Action, code, text, nil))
}

func (c *Client) respond(msg *ws.Message, err error) {
	if err != nil {
		c.logger.Error("Failed to build frame", zap.Error(err))
		return
	}
	c.write(msg)
}

func (c *Client) write(msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to encode frame", zap.Error(err))
		return
	}
	c.hub.send(c, data)
}

// writeLoop owns all writes to the connection: one text frame per queued
// message plus periodic pings. It exits when the hub closes send.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		var err error
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			err = c.conn.WriteMessage(websocket.TextMessage, data)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("Write failed", zap.Error(err))
			}
			return
		}
	}
}

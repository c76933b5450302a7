package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/logger"
	ws "github.com/kandev/dbchat/pkg/websocket"
)

// Operators are not authenticated; deployments put the bot behind their own
// proxy, so any origin may connect.
var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler accepts sockets on GET /ws.
type Handler struct {
	hub    *Hub
	logger *logger.Logger
}

func NewHandler(hub *Hub, log *logger.Logger) *Handler {
	return &Handler{hub: hub, logger: log.Component("ws-handler")}
}

// HandleConnection upgrades the request and serves the socket until the
// peer disconnects or the hub shuts down.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("Upgrade refused", zap.String("remote_addr", c.Request.RemoteAddr), zap.Error(err))
		return
	}

	client := NewClient(uuid.NewString(), conn, h.hub, h.logger)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	h.logger.Debug("Socket opened",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Queued chat lines must not be cancelled when the request ends.
	client.serve(context.WithoutCancel(c.Request.Context()))
}

// StatusFunc reports service health for health.check and GET /health.
type StatusFunc func() map[string]any

func RegisterHealthHandler(d *ws.Dispatcher, status StatusFunc) {
	d.RegisterFunc(ws.ActionHealthCheck, func(_ context.Context, msg *ws.Message) (*ws.Message, error) {
		return ws.NewResponse(msg.ID, msg.Action, status())
	})
}

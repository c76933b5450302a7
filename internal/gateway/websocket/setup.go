package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kandev/dbchat/internal/common/logger"
	ws "github.com/kandev/dbchat/pkg/websocket"
)

// Gateway bundles the hub, dispatcher and HTTP handler of the chat endpoint.
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	status     StatusFunc
}

// NewGateway creates a gateway that hands chat lines to inbound and answers
// health checks with status.
func NewGateway(inbound InboundFunc, status StatusFunc, log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, inbound, log)
	RegisterHealthHandler(dispatcher, status)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    NewHandler(hub, log),
		status:     status,
	}
}

// SetupRoutes adds GET /ws and GET /health.
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, g.status())
	})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fedro86/almost-a-cms/internal/middleware"
	"github.com/fedro86/almost-a-cms/internal/socket"
)

type EventsHandler struct {
	hub     *socket.Hub
	origins *middleware.OriginPolicy
}

// NewEventsHandler applies the same origin policy as the CORS middleware to
// websocket handshakes.
func NewEventsHandler(hub *socket.Hub, origins *middleware.OriginPolicy) *EventsHandler {
	return &EventsHandler{hub: hub, origins: origins}
}

func (h *EventsHandler) Subscribe(c *gin.Context) {
	var check socket.OriginChecker
	if h.origins != nil {
		check = h.origins.CheckWebSocketOrigin
	}
	socket.ServeWs(h.hub, c.Writer, c.Request, check)
}

package handlers

import (
	"github.com/anonto42/syrena/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// RealtimeHandler upgrades authenticated requests to the change feed
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/ws", h.Subscribe, mw...)
}

func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.hub.Connect(c.Response(), c.Request(), userID); err != nil {
		// the upgrader has already written the error response
		c.Logger().Debug(err)
	}
	return nil
}

package main

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trustform/assessd/internal/auth"
	"github.com/trustform/assessd/internal/wshandler"
)

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		// staff get the whole feed
		org := ""
		if c, _ := ws.Locals(ClaimsKey).(*auth.Claims); c != nil && !c.HasRole(RoleStaff...) {
			org = c.Org
		}

		h := wshandler.NewHandler(app.logger, name, org, ws)

		app.logger.Debug("ws listener connected")
		app.bus.Subscribe(name, h.SendEvent)
		h.Listen()
		app.bus.Unsubscribe(name)
		app.logger.Debug("ws listener disconnected")
	})
}

package routes

import (
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Use("/ws", handlers.WebSocketUpgrade)
	api.Get("/ws/notifications", websocket.New(h.ServeNotifications))
}

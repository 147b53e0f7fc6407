package routes

import (
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, h *handlers.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	AuthRoutes(app, h)
	AdminRoutes(app, h)
	PaymentRoutes(app, h)
	GymRoutes(app, h)
	NotificationRoutes(app, h)
}

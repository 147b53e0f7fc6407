package routes

import (
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/gofiber/fiber/v2"
)

func GymRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	gym := api.Group("/gym", middleware.Protected(h.JWTSecret), middleware.GymOwnerRequired())
	gym.Get("/notifications", h.ListNotifications)
	gym.Put("/notifications/:notificationId/read", h.MarkNotificationRead)

	gym.Get("/:gymId/balance", h.GetGymBalance)
	gym.Get("/:gymId/withdrawals", h.ListGymWithdrawals)
	gym.Post("/:gymId/withdrawals", h.RequestWithdrawal)
}

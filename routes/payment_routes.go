package routes

import (
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/gofiber/fiber/v2"
)

// PaymentRoutes is the intake used by the membership checkout once a
// payment has cleared.
func PaymentRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected(h.JWTSecret), middleware.AdminRequired())
	payments.Post("/completed", h.RecordCompletedPayment)
}

package routes

import (
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(h.JWTSecret), middleware.AdminRequired())

	settings := admin.Group("/revenue-settings")
	settings.Get("/tier", h.ListTierRules)
	settings.Post("/tier", h.AddTierRule)
	settings.Put("/tier/:ruleId", h.UpdateTierRule)
	settings.Delete("/tier/:ruleId", h.DeleteTierRule)
	settings.Get("/fee", h.ListFeeRules)
	settings.Post("/fee", h.AddFeeRule)
	settings.Put("/fee/:ruleId", h.UpdateFeeRule)
	settings.Delete("/fee/:ruleId", h.DeleteFeeRule)
	settings.Post("/preview", h.PreviewSplit)

	withdrawals := admin.Group("/withdrawals")
	withdrawals.Get("", h.ListWithdrawals)
	withdrawals.Post("/approve-all", h.ApproveAllWithdrawals)
	withdrawals.Post("/:requestId/approve", h.ApproveWithdrawal)
	withdrawals.Post("/:requestId/reject", h.RejectWithdrawal)

	admin.Post("/payments/:paymentId/settle", h.SettlePayment)
}

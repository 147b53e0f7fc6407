package handlers

import (
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalRequestBody struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID string          `json:"payment_method_id" validate:"required,uuid"`
}

func (h *Handler) GetGymBalance(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	gymID, ok := uuidParam(c, "gymId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid gym ID"})
	}

	balance, err := h.Ledger.GetBalance(c.UserContext(), gymID, auth)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"gym_id": gymID, "balance": balance.StringFixed(2)})
}

func (h *Handler) RequestWithdrawal(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	gymID, ok := uuidParam(c, "gymId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid gym ID"})
	}
	var req WithdrawalRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	methodID := uuid.MustParse(req.PaymentMethodID)

	withdrawal, err := h.Ledger.RequestWithdrawal(c.UserContext(), auth, gymID, req.Amount, methodID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Withdrawal request submitted successfully",
		"withdrawal": withdrawal,
	})
}

func (h *Handler) ListGymWithdrawals(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	gymID, ok := uuidParam(c, "gymId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid gym ID"})
	}
	if _, err := h.Ledger.AuthorizeGym(c.UserContext(), gymID, auth); err != nil {
		return h.respondError(c, err)
	}

	f, ok := withdrawalFilter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}
	f.GymID = &gymID

	requests, total, err := h.Ledger.ListWithdrawals(c.UserContext(), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(listResponse(requests, total, f))
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	notes, err := h.Notifier.ListForUser(c.UserContext(), auth.ActorID, c.QueryBool("unread", false), c.QueryInt("limit", 50))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notes})
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	id, ok := uuidParam(c, "notificationId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}
	if err := h.Notifier.MarkRead(c.UserContext(), auth.ActorID, id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

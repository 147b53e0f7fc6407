package handlers

import (
	"errors"

	"github.com/anjiri1684/gym_revenue/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CompletedPaymentRequest struct {
	GymID    string          `json:"gym_id" validate:"required,uuid"`
	UserID   string          `json:"user_id" validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	CutType  string          `json:"cut_type" validate:"required,oneof=tier_based fee_based"`
	Tier     string          `json:"tier" validate:"required_if=CutType tier_based"`
	Duration string          `json:"duration" validate:"required_if=CutType tier_based"`
}

// RecordCompletedPayment stores a completed membership payment and settles
// it right away. A payment with no matching rule is kept unsettled for the
// sweep and reported as 202.
func (h *Handler) RecordCompletedPayment(c *fiber.Ctx) error {
	var req CompletedPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payment, split, err := h.Settlement.RecordCompletedPayment(c.UserContext(), services.CompletedPayment{
		GymID:    uuid.MustParse(req.GymID),
		UserID:   uuid.MustParse(req.UserID),
		Amount:   req.Amount,
		CutType:  req.CutType,
		Tier:     req.Tier,
		Duration: req.Duration,
	})
	if err != nil {
		if payment != nil && errors.Is(err, services.ErrNoApplicableRule) {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"message": "Payment recorded; settlement pending until a matching revenue rule exists",
				"payment": payment,
			})
		}
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded and settled",
		"payment": payment,
		"split":   split,
	})
}

func (h *Handler) SettlePayment(c *fiber.Ctx) error {
	paymentID, ok := uuidParam(c, "paymentId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}
	split, err := h.Settlement.SettlePayment(c.UserContext(), paymentID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment settled", "split": split})
}

package handlers

import (
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/anjiri1684/gym_revenue/models"
	"github.com/anjiri1684/gym_revenue/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ApproveWithdrawalRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Notes         string `json:"notes"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func withdrawalFilter(c *fiber.Ctx) (services.WithdrawalFilter, bool) {
	f := services.WithdrawalFilter{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}
	switch f.Status {
	case "", models.WithdrawalPending, models.WithdrawalCompleted, models.WithdrawalFailed:
	default:
		return f, false
	}
	return f, true
}

func listResponse(requests []models.WithdrawalRequest, total int64, f services.WithdrawalFilter) fiber.Map {
	return fiber.Map{
		"withdrawals": requests,
		"total":       total,
		"page":        f.Page,
		"limit":       f.Limit,
	}
}

func (h *Handler) ListWithdrawals(c *fiber.Ctx) error {
	f, ok := withdrawalFilter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}
	if raw := c.Query("gym_id"); raw != "" {
		gymID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid gym ID"})
		}
		f.GymID = &gymID
	}

	requests, total, err := h.Ledger.ListWithdrawals(c.UserContext(), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(listResponse(requests, total, f))
}

func (h *Handler) ApproveWithdrawal(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	requestID, ok := uuidParam(c, "requestId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid withdrawal request ID"})
	}
	var req ApproveWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Ledger.Approve(c.UserContext(), requestID, req.TransactionID, req.Notes, auth); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Withdrawal request processed successfully"})
}

func (h *Handler) RejectWithdrawal(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	requestID, ok := uuidParam(c, "requestId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid withdrawal request ID"})
	}
	var req RejectWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Ledger.Reject(c.UserContext(), requestID, req.Reason, auth); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Withdrawal request rejected and amount returned to gym balance"})
}

func (h *Handler) ApproveAllWithdrawals(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	result, err := h.Ledger.ApproveAll(c.UserContext(), auth)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":         "All pending withdrawal requests processed successfully",
		"processed_count": result.ProcessedCount,
		"request_ids":     result.RequestIDs,
	})
}

package handlers

import (
	"github.com/anjiri1684/gym_revenue/middleware"
	"github.com/anjiri1684/gym_revenue/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TierRuleRequest struct {
	Tier               string          `json:"tier" validate:"required,oneof=Tier1 Tier2 Tier3"`
	Duration           string          `json:"duration" validate:"required,oneof=Daily Weekly Monthly 3Months 6Months Yearly"`
	AdminCutPercentage decimal.Decimal `json:"admin_cut_percentage"`
	GymCutPercentage   decimal.Decimal `json:"gym_owner_cut_percentage"`
}

type TierRuleUpdateRequest struct {
	AdminCutPercentage decimal.Decimal `json:"admin_cut_percentage"`
	GymCutPercentage   decimal.Decimal `json:"gym_owner_cut_percentage"`
}

type FeeRuleRequest struct {
	PriceRangeStart    decimal.Decimal `json:"price_range_start"`
	PriceRangeEnd      decimal.Decimal `json:"price_range_end"`
	AdminCutPercentage decimal.Decimal `json:"admin_cut_percentage"`
	GymCutPercentage   decimal.Decimal `json:"gym_cut_percentage"`
}

type PreviewRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	CutType  string          `json:"cut_type" validate:"required,oneof=tier_based fee_based"`
	Tier     string          `json:"tier" validate:"required_if=CutType tier_based"`
	Duration string          `json:"duration" validate:"required_if=CutType tier_based"`
}

func (h *Handler) ListTierRules(c *fiber.Ctx) error {
	rules, err := h.Rates.ListTierRules(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"rules": rules})
}

func (h *Handler) AddTierRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	var req TierRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	id, err := h.Rates.AddTierRule(c.UserContext(), auth, req.Tier, req.Duration, req.AdminCutPercentage, req.GymCutPercentage)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Revenue setting added successfully", "id": id})
}

func (h *Handler) UpdateTierRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	id, ok := uuidParam(c, "ruleId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule ID"})
	}
	var req TierRuleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.Rates.UpdateTierRule(c.UserContext(), auth, id, req.AdminCutPercentage, req.GymCutPercentage); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Revenue setting updated successfully"})
}

func (h *Handler) DeleteTierRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	id, ok := uuidParam(c, "ruleId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule ID"})
	}
	if err := h.Rates.DeleteTierRule(c.UserContext(), auth, id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Revenue setting deleted successfully"})
}

func (h *Handler) ListFeeRules(c *fiber.Ctx) error {
	rules, err := h.Rates.ListFeeRules(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"rules": rules})
}

func (h *Handler) AddFeeRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	var req FeeRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	id, err := h.Rates.AddFeeRule(c.UserContext(), auth, req.PriceRangeStart, req.PriceRangeEnd, req.AdminCutPercentage, req.GymCutPercentage)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Fee-based setting added successfully", "id": id})
}

func (h *Handler) UpdateFeeRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	id, ok := uuidParam(c, "ruleId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule ID"})
	}
	var req FeeRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.Rates.UpdateFeeRule(c.UserContext(), auth, id, req.PriceRangeStart, req.PriceRangeEnd, req.AdminCutPercentage, req.GymCutPercentage); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Fee-based setting updated successfully"})
}

func (h *Handler) DeleteFeeRule(c *fiber.Ctx) error {
	auth, ok := middleware.AuthContextFrom(c)
	if !ok {
		return invalidClaims(c)
	}
	id, ok := uuidParam(c, "ruleId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule ID"})
	}
	if err := h.Rates.DeleteFeeRule(c.UserContext(), auth, id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Fee-based setting deleted successfully"})
}

// PreviewSplit shows how a payment would be divided under the current rules.
func (h *Handler) PreviewSplit(c *fiber.Ctx) error {
	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	split, err := h.Settlement.Preview(c.UserContext(), services.SplitPayment{
		Amount:   req.Amount,
		CutType:  req.CutType,
		Tier:     req.Tier,
		Duration: req.Duration,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(split)
}

package handlers

import (
	"errors"

	"github.com/anjiri1684/gym_revenue/services"
	"github.com/anjiri1684/gym_revenue/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var validate = validator.New()

// Handler carries the services behind the HTTP API.
type Handler struct {
	DB         *gorm.DB
	Rates      *services.RateTable
	Settlement *services.SettlementService
	Ledger     *services.WithdrawalLedger
	Notifier   *services.Notifier
	Hub        *websocket.Hub
	JWTSecret  string
	Logger     zerolog.Logger
}

type errorStatus struct {
	err     error
	status  int
	message string
}

// errorStatuses is checked in order; the first match wins.
var errorStatuses = []errorStatus{
	{services.ErrValidation, fiber.StatusBadRequest, ""},
	{services.ErrInvalidRange, fiber.StatusBadRequest, ""},
	{services.ErrInsufficientBalance, fiber.StatusBadRequest, "Insufficient balance for this withdrawal request"},
	{services.ErrDuplicateRule, fiber.StatusConflict, "A rule for this tier and duration already exists"},
	{services.ErrOverlappingRange, fiber.StatusConflict, "Price range overlaps with an existing range"},
	{services.ErrInvalidState, fiber.StatusConflict, "Invalid withdrawal request or already processed"},
	{services.ErrAlreadySettled, fiber.StatusConflict, "Payment already settled"},
	{services.ErrNotFound, fiber.StatusNotFound, ""},
	{services.ErrForbidden, fiber.StatusForbidden, "Forbidden: not your gym"},
	{services.ErrNoApplicableRule, fiber.StatusUnprocessableEntity, ""},
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			msg := es.message
			if msg == "" {
				msg = err.Error()
			}
			return c.Status(es.status).JSON(fiber.Map{"error": msg})
		}
	}
	h.Logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func invalidClaims(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
}

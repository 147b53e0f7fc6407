package handlers

import (
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/anjiri1684/gym_revenue/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const wsAuthTimeout = 10 * time.Second

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WebSocketUpgrade lets only websocket handshakes through to ServeNotifications.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// ServeNotifications authenticates a gym owner with a first
// {"type":"auth","token":...} frame, then keeps the connection registered
// with the hub until the client goes away.
func (h *Handler) ServeNotifications(c *websocketcontrib.Conn) {
	log := h.Logger.With().Str("component", "NotificationSocket").Logger()

	_ = c.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	var authMsg wsAuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Debug().Err(err).Msg("websocket auth failed: invalid or missing auth message")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := h.parseToken(authMsg.Token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}
	if role, _ := claims["role"].(string); role != models.RoleGymOwner {
		_ = c.WriteJSON(fiber.Map{"error": "Forbidden: Gym owner access required"})
		c.Close()
		return
	}
	_ = c.SetReadDeadline(time.Time{})
	_ = c.WriteJSON(fiber.Map{"type": "ready"})

	// From here on only the hub writes to the connection.
	client := &websocket.Client{UserID: userID, Conn: c}
	h.Hub.Add(client)
	defer func() {
		h.Hub.Remove(client)
		c.Close()
	}()

	// Inbound frames carry nothing; reading only detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure, websocketcontrib.CloseNormalClosure) {
				log.Debug().Str("user_id", userID.String()).Msg("websocket closed")
			} else {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("websocket read error")
			}
			return
		}
	}
}

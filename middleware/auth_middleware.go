package middleware

import (
	"github.com/anjiri1684/gym_revenue/models"
	"github.com/anjiri1684/gym_revenue/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func claimsFrom(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	return claims
}

func roleRequired(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsFrom(c)
		if r, _ := claims["role"].(string); r != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": message,
			})
		}
		return c.Next()
	}
}

func AdminRequired() fiber.Handler {
	return roleRequired(models.RoleAdmin, "Forbidden: Admin access required")
}

func GymOwnerRequired() fiber.Handler {
	return roleRequired(models.RoleGymOwner, "Forbidden: Gym owner access required")
}

// AuthContextFrom builds the acting identity for service calls from the
// verified token and the request itself.
func AuthContextFrom(c *fiber.Ctx) (services.AuthContext, bool) {
	claims := claimsFrom(c)
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return services.AuthContext{}, false
	}
	role, _ := claims["role"].(string)
	return services.AuthContext{
		ActorID:   id,
		Role:      role,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}, true
}

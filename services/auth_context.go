package services

import (
	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
)

// AuthContext identifies who is calling. It is built by the HTTP layer and
// passed into every mutating call.
type AuthContext struct {
	ActorID   uuid.UUID
	Role      string
	IP        string
	UserAgent string
}

func (a AuthContext) IsAdmin() bool { return a.Role == models.RoleAdmin }

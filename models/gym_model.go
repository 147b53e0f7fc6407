package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gym carries the accrued balance that settlements credit and withdrawal
// requests reserve against.
type Gym struct {
	GymID   uuid.UUID       `gorm:"column:gym_id;type:uuid;primary_key" json:"gym_id"`
	OwnerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name    string          `gorm:"size:255;not null" json:"name"`
	Balance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`

	Owner *User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Gym) BeforeCreate(tx *gorm.DB) error {
	if g.GymID == uuid.Nil {
		g.GymID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment keeps the split it was settled with, so rule edits and deletes
// never rewrite history.
type Payment struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	GymID    uuid.UUID       `gorm:"column:gym_id;type:uuid;not null;index" json:"gym_id"`
	UserID   uuid.UUID       `gorm:"type:uuid;not null" json:"user_id"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CutType  string          `gorm:"size:20;not null" json:"cut_type"`
	Tier     *string         `gorm:"size:10" json:"tier"`
	Duration *string         `gorm:"size:20" json:"duration"`
	Status   string          `gorm:"size:20;not null;index" json:"status"`

	AdminAmount decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"admin_amount"`
	GymAmount   decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"gym_amount"`
	SettledAt   *time.Time          `gorm:"index" json:"settled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

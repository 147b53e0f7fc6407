package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
	WithdrawalFailed    = "failed"
)

// WithdrawalRequest moves pending -> completed or pending -> failed, never
// out of a terminal state. The amount left the gym balance when the
// request was created.
type WithdrawalRequest struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	GymID           uuid.UUID       `gorm:"column:gym_id;type:uuid;not null;index" json:"gym_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null" json:"payment_method_id"`
	Status          string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	TransactionID   *string         `gorm:"size:255" json:"transaction_id"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	AdminID         *uuid.UUID      `gorm:"type:uuid" json:"admin_id"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	ProcessedAt     *time.Time      `json:"processed_at"`

	Gym           *Gym           `gorm:"foreignkey:GymID;references:GymID" json:"gym,omitempty"`
	PaymentMethod *PaymentMethod `gorm:"foreignkey:PaymentMethodID" json:"payment_method,omitempty"`
}

func (WithdrawalRequest) TableName() string { return "withdrawals" }

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

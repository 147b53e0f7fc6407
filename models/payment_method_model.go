package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethod struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GymID         uuid.UUID `gorm:"column:gym_id;type:uuid;not null;index" json:"gym_id"`
	MethodType    string    `gorm:"size:20;not null" json:"method_type"`
	AccountName   string    `gorm:"size:255" json:"account_name"`
	AccountNumber *string   `gorm:"size:64" json:"account_number"`
	IFSCCode      *string   `gorm:"column:ifsc_code;size:20" json:"ifsc_code"`
	UPIID         *string   `gorm:"column:upi_id;size:255" json:"upi_id"`
	IsPrimary     bool      `gorm:"default:false" json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
}

func (PaymentMethod) TableName() string { return "gym_payment_methods" }

func (p *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

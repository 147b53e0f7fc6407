package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CutTypeTierBased = "tier_based"
	CutTypeFeeBased  = "fee_based"
)

var (
	Tiers     = []string{"Tier1", "Tier2", "Tier3"}
	Durations = []string{"Daily", "Weekly", "Monthly", "3Months", "6Months", "Yearly"}
)

// RevenueRule is a tier-based split keyed by membership tier and duration.
type RevenueRule struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Tier               string          `gorm:"size:10;not null;uniqueIndex:idx_cut_off_tier_duration" json:"tier"`
	Duration           string          `gorm:"size:20;not null;uniqueIndex:idx_cut_off_tier_duration" json:"duration"`
	AdminCutPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"admin_cut_percentage"`
	GymCutPercentage   decimal.Decimal `gorm:"column:gym_owner_cut_percentage;type:numeric(5,2);not null" json:"gym_owner_cut_percentage"`
	CutType            string          `gorm:"size:20;not null;default:'tier_based'" json:"cut_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RevenueRule) TableName() string { return "cut_off_chart" }

func (r *RevenueRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FeeRule is a split keyed by the closed price range a payment falls into.
type FeeRule struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PriceRangeStart    decimal.Decimal `gorm:"type:numeric(12,2);not null;index" json:"price_range_start"`
	PriceRangeEnd      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_range_end"`
	AdminCutPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"admin_cut_percentage"`
	GymCutPercentage   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"gym_cut_percentage"`
	CutType            string          `gorm:"size:20;not null;default:'fee_based'" json:"cut_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FeeRule) TableName() string { return "fee_based_cuts" }

func (r *FeeRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

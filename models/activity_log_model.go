package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionProcessWithdrawal      = "process_withdrawal"
	ActionRejectWithdrawal       = "reject_withdrawal"
	ActionBatchProcessWithdrawal = "batch_process_withdrawal"
	ActionUpdateRevenueSettings  = "update_revenue_settings"
	ActionAddRevenueSetting      = "add_revenue_setting"
	ActionDeleteRevenueSetting   = "delete_revenue_setting"
)

// ActivityLog is the admin audit trail. Rows are only ever appended.
type ActivityLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	UserType  string         `gorm:"size:20;not null" json:"user_type"`
	Action    string         `gorm:"size:64;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `gorm:"size:64" json:"ip_address"`
	UserAgent string         `gorm:"type:text" json:"user_agent"`
	CreatedAt time.Time      `json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

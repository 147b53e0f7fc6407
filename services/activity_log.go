package services

import (
	"encoding/json"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityRecorder appends audit rows inside the caller's transaction.
type ActivityRecorder interface {
	Record(tx *gorm.DB, entry *models.ActivityLog) error
}

type GormActivityRecorder struct{}

func (GormActivityRecorder) Record(tx *gorm.DB, entry *models.ActivityLog) error {
	return tx.Create(entry).Error
}

const activitySavepoint = "activity_log"

// auditTrail writes activity logs on a best-effort basis. A failed write is
// rolled back to a savepoint so the surrounding transaction stays usable,
// and is reported only through the logger. Balance and status writes must
// never go through here.
type auditTrail struct {
	recorder ActivityRecorder
	logger   zerolog.Logger
}

func newAuditTrail(recorder ActivityRecorder, logger zerolog.Logger) auditTrail {
	if recorder == nil {
		recorder = GormActivityRecorder{}
	}
	return auditTrail{recorder: recorder, logger: logger}
}

func (a auditTrail) record(tx *gorm.DB, auth AuthContext, action string, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("activity log details not encodable")
		payload = []byte("{}")
	}

	entry := &models.ActivityLog{
		UserID:    auth.ActorID,
		UserType:  userType(auth),
		Action:    action,
		Details:   datatypes.JSON(payload),
		IPAddress: auth.IP,
		UserAgent: auth.UserAgent,
	}

	if err := tx.SavePoint(activitySavepoint).Error; err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("activity log skipped: savepoint failed")
		return
	}
	if err := a.recorder.Record(tx, entry); err != nil {
		if rbErr := tx.RollbackTo(activitySavepoint).Error; rbErr != nil {
			a.logger.Error().Err(rbErr).Str("action", action).Msg("rollback to activity log savepoint failed")
		}
		a.logger.Warn().Err(err).Str("action", action).Str("actor_id", auth.ActorID.String()).Msg("activity log write failed")
	}
}

func userType(auth AuthContext) string {
	if auth.Role == "" {
		return models.RoleAdmin
	}
	return auth.Role
}

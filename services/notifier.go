package services

import (
	"context"
	"fmt"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// NotificationPusher delivers an already-committed notification over some
// live channel (websocket, email). Push must not block on slow I/O.
type NotificationPusher interface {
	Push(n models.Notification, recipient models.User)
}

// Notifier owns the notifications table. Rows are appended inside the
// caller's transaction; delivery to pushers happens only after commit.
type Notifier struct {
	db      *gorm.DB
	pushers []NotificationPusher
	logger  zerolog.Logger
}

func NewNotifier(db *gorm.DB, logger zerolog.Logger, pushers ...NotificationPusher) *Notifier {
	return &Notifier{
		db:      db,
		pushers: pushers,
		logger:  logger.With().Str("component", "Notifier").Logger(),
	}
}

// delivery is a committed-or-about-to-commit notification and its recipient.
type delivery struct {
	notification models.Notification
	recipient    models.User
}

func (n *Notifier) append(tx *gorm.DB, recipient models.User, title, message string) (delivery, error) {
	note := models.Notification{
		UserID:  recipient.ID,
		Title:   title,
		Message: message,
	}
	if err := tx.Create(&note).Error; err != nil {
		return delivery{}, persistence("append notification", err)
	}
	return delivery{notification: note, recipient: recipient}, nil
}

func (n *Notifier) deliver(deliveries ...delivery) {
	if n == nil {
		return
	}
	for _, d := range deliveries {
		for _, p := range n.pushers {
			p.Push(d.notification, d.recipient)
		}
	}
}

func (n *Notifier) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := n.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notes []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&notes).Error; err != nil {
		return nil, persistence("list notifications", err)
	}
	return notes, nil
}

func (n *Notifier) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return persistence("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

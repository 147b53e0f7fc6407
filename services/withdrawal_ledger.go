package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/anjiri1684/gym_revenue/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	titleWithdrawalProcessed = "Withdrawal Processed"
	titleWithdrawalRejected  = "Withdrawal Rejected"
	batchNote                = "Processed in batch"
)

// WithdrawalLedger runs the withdrawal request lifecycle against gym
// balances. The requested amount leaves the balance when the request is
// created; approval only finalizes it and rejection puts it back.
type WithdrawalLedger struct {
	db       *gorm.DB
	notifier *Notifier
	audit    auditTrail
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWithdrawalLedger(db *gorm.DB, notifier *Notifier, recorder ActivityRecorder, logger zerolog.Logger) *WithdrawalLedger {
	logger = logger.With().Str("component", "WithdrawalLedger").Logger()
	return &WithdrawalLedger{
		db:       db,
		notifier: notifier,
		audit:    newAuditTrail(recorder, logger),
		logger:   logger,
		now:      time.Now,
	}
}

type BatchResult struct {
	ProcessedCount int         `json:"processed_count"`
	RequestIDs     []uuid.UUID `json:"request_ids"`
}

// Approve marks a pending request completed with the payout reference.
func (l *WithdrawalLedger) Approve(ctx context.Context, requestID uuid.UUID, transactionID, notes string, auth AuthContext) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return validationError("transaction id is required")
	}

	now := l.now()
	var sent delivery
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockPending(tx, requestID)
		if err != nil {
			return err
		}
		sent, err = l.complete(tx, req, transactionID, optionalText(notes), auth, now)
		if err != nil {
			return err
		}

		l.audit.record(tx, auth, models.ActionProcessWithdrawal, map[string]any{
			"withdrawal_id":  requestID,
			"gym_id":         req.GymID,
			"amount":         req.Amount.StringFixed(2),
			"transaction_id": transactionID,
		})
		return nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Str("withdrawal_id", requestID.String()).Msg("approve withdrawal failed")
		return err
	}

	l.notifier.deliver(sent)
	l.logger.Info().
		Str("withdrawal_id", requestID.String()).
		Str("transaction_id", transactionID).
		Str("admin_id", auth.ActorID.String()).
		Msg("withdrawal approved")
	return nil
}

// Reject marks a pending request failed and returns its amount to the gym.
func (l *WithdrawalLedger) Reject(ctx context.Context, requestID uuid.UUID, reason string, auth AuthContext) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationError("rejection reason is required")
	}

	now := l.now()
	var sent delivery
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockPending(tx, requestID)
		if err != nil {
			return err
		}
		if err := transition(tx, req.ID, map[string]any{
			"status":       models.WithdrawalFailed,
			"notes":        reason,
			"processed_at": now,
			"admin_id":     auth.ActorID,
		}); err != nil {
			return err
		}

		var gym models.Gym
		if err := forUpdate(tx).First(&gym, "gym_id = ?", req.GymID).Error; err != nil {
			return persistence("load gym", err)
		}
		restored := gym.Balance.Add(req.Amount)
		if err := tx.Model(&models.Gym{}).Where("gym_id = ?", gym.GymID).Update("balance", restored).Error; err != nil {
			return persistence("restore gym balance", err)
		}

		owner, err := loadUser(tx, gym.OwnerID)
		if err != nil {
			return err
		}
		sent, err = l.notifier.append(tx, owner, titleWithdrawalRejected, fmt.Sprintf(
			"Your withdrawal request of ₹%s has been rejected. Reason: %s. The amount has been returned to your gym balance.",
			utils.FormatAmount(req.Amount), reason,
		))
		if err != nil {
			return err
		}

		l.audit.record(tx, auth, models.ActionRejectWithdrawal, map[string]any{
			"withdrawal_id": requestID,
			"gym_id":        req.GymID,
			"amount":        req.Amount.StringFixed(2),
			"reason":        reason,
		})
		return nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Str("withdrawal_id", requestID.String()).Msg("reject withdrawal failed")
		return err
	}

	l.notifier.deliver(sent)
	l.logger.Info().
		Str("withdrawal_id", requestID.String()).
		Str("admin_id", auth.ActorID.String()).
		Msg("withdrawal rejected")
	return nil
}

// ApproveAll approves every pending request, oldest first, inside a single
// transaction. One failure rolls the whole batch back.
func (l *WithdrawalLedger) ApproveAll(ctx context.Context, auth AuthContext) (BatchResult, error) {
	now := l.now()
	var (
		result BatchResult
		sent   []delivery
	)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []models.WithdrawalRequest
		if err := forUpdate(tx).
			Where("status = ?", models.WithdrawalPending).
			Order("created_at asc").
			Find(&pending).Error; err != nil {
			return persistence("list pending withdrawals", err)
		}

		note := batchNote
		for i := range pending {
			req := &pending[i]
			d, err := l.complete(tx, req, utils.BatchTransactionID(now, req.ID), &note, auth, now)
			if err != nil {
				return fmt.Errorf("batch item %s: %w", req.ID, err)
			}
			sent = append(sent, d)
			result.RequestIDs = append(result.RequestIDs, req.ID)
		}
		result.ProcessedCount = len(pending)

		if result.ProcessedCount > 0 {
			l.audit.record(tx, auth, models.ActionBatchProcessWithdrawal, map[string]any{
				"processed_count": result.ProcessedCount,
				"withdrawal_ids":  result.RequestIDs,
			})
		}
		return nil
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("batch withdrawal approval rolled back")
		return BatchResult{}, err
	}

	l.notifier.deliver(sent...)
	l.logger.Info().Int("processed_count", result.ProcessedCount).Str("admin_id", auth.ActorID.String()).Msg("batch withdrawal approval committed")
	return result, nil
}

func (l *WithdrawalLedger) complete(tx *gorm.DB, req *models.WithdrawalRequest, transactionID string, notes *string, auth AuthContext, now time.Time) (delivery, error) {
	if err := transition(tx, req.ID, map[string]any{
		"status":         models.WithdrawalCompleted,
		"transaction_id": transactionID,
		"notes":          notes,
		"processed_at":   now,
		"admin_id":       auth.ActorID,
	}); err != nil {
		return delivery{}, err
	}

	var gym models.Gym
	if err := tx.Select("gym_id", "owner_id").First(&gym, "gym_id = ?", req.GymID).Error; err != nil {
		return delivery{}, persistence("load gym", err)
	}
	owner, err := loadUser(tx, gym.OwnerID)
	if err != nil {
		return delivery{}, err
	}

	return l.notifier.append(tx, owner, titleWithdrawalProcessed, fmt.Sprintf(
		"Your withdrawal request of ₹%s has been processed. Transaction ID: %s",
		utils.FormatAmount(req.Amount), transactionID,
	))
}

// lockPending loads the request under a row lock and refuses anything that
// is no longer pending.
func lockPending(tx *gorm.DB, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := forUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
		return nil, persistence("load withdrawal", err)
	}
	if req.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("withdrawal %s is %s: %w", id, req.Status, ErrInvalidState)
	}
	return &req, nil
}

// transition applies updates only while the row is still pending. Losing a
// race shows up as zero affected rows.
func transition(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	result := tx.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, models.WithdrawalPending).
		Updates(updates)
	if result.Error != nil {
		return persistence("update withdrawal", result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("withdrawal %s: %w", id, ErrInvalidState)
	}
	return nil
}

func loadUser(tx *gorm.DB, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, persistence("load gym owner", err)
	}
	return user, nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// RequestWithdrawal reserves amount from the gym balance and opens a
// pending request against one of the gym's payment methods.
func (l *WithdrawalLedger) RequestWithdrawal(ctx context.Context, auth AuthContext, gymID uuid.UUID, amount decimal.Decimal, paymentMethodID uuid.UUID) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, validationError("withdrawal amount must be greater than zero")
	}
	if !isCents(amount) {
		return nil, validationError("withdrawal amount has more than two decimal places")
	}

	req := models.WithdrawalRequest{
		GymID:           gymID,
		Amount:          amount,
		PaymentMethodID: paymentMethodID,
		Status:          models.WithdrawalPending,
		CreatedAt:       l.now(),
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gym models.Gym
		if err := forUpdate(tx).First(&gym, "gym_id = ?", gymID).Error; err != nil {
			return persistence("load gym", err)
		}
		if !auth.IsAdmin() && gym.OwnerID != auth.ActorID {
			return ErrForbidden
		}

		var method models.PaymentMethod
		if err := tx.First(&method, "id = ? AND gym_id = ?", paymentMethodID, gymID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationError("payment method does not belong to this gym")
			}
			return persistence("load payment method", err)
		}

		if gym.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, gym.Balance.StringFixed(2), amount.StringFixed(2))
		}

		if err := tx.Model(&models.Gym{}).Where("gym_id = ?", gymID).Update("balance", gym.Balance.Sub(amount)).Error; err != nil {
			return persistence("reserve gym balance", err)
		}
		return persistence("create withdrawal", tx.Create(&req).Error)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("withdrawal_id", req.ID.String()).
		Str("gym_id", gymID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("withdrawal requested")
	return &req, nil
}

// AuthorizeGym loads a gym the caller may act on: admins see every gym,
// owners only their own.
func (l *WithdrawalLedger) AuthorizeGym(ctx context.Context, gymID uuid.UUID, auth AuthContext) (*models.Gym, error) {
	var gym models.Gym
	if err := l.db.WithContext(ctx).First(&gym, "gym_id = ?", gymID).Error; err != nil {
		return nil, persistence("load gym", err)
	}
	if !auth.IsAdmin() && gym.OwnerID != auth.ActorID {
		return nil, ErrForbidden
	}
	return &gym, nil
}

func (l *WithdrawalLedger) GetBalance(ctx context.Context, gymID uuid.UUID, auth AuthContext) (decimal.Decimal, error) {
	gym, err := l.AuthorizeGym(ctx, gymID, auth)
	if err != nil {
		return decimal.Zero, err
	}
	return gym.Balance, nil
}

type WithdrawalFilter struct {
	Status string
	GymID  *uuid.UUID
	Page   int
	Limit  int
}

func (l *WithdrawalLedger) ListWithdrawals(ctx context.Context, f WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := l.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.GymID != nil {
		query = query.Where("gym_id = ?", *f.GymID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, persistence("count withdrawals", err)
	}

	var requests []models.WithdrawalRequest
	if err := query.Session(&gorm.Session{}).
		Preload("Gym").
		Preload("PaymentMethod").
		Order("created_at desc").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, persistence("list withdrawals", err)
	}
	return requests, total, nil
}

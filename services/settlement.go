package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleLookup resolves the split rule for a payment classification.
type RuleLookup interface {
	LookupTierRule(ctx context.Context, tier, duration string) (*models.RevenueRule, error)
	LookupFeeRule(ctx context.Context, price decimal.Decimal) (*models.FeeRule, error)
}

// SplitPayment is what the calculator needs to know about a payment. The
// classification method (CutType) is decided by the caller.
type SplitPayment struct {
	Amount   decimal.Decimal
	CutType  string
	Tier     string
	Duration string
}

type Split struct {
	AdminAmount        decimal.Decimal `json:"admin_amount"`
	GymAmount          decimal.Decimal `json:"gym_amount"`
	AdminCutPercentage decimal.Decimal `json:"admin_cut_percentage"`
	CutType            string          `json:"cut_type"`
	RuleID             uuid.UUID       `json:"rule_id"`
}

type SettlementCalculator struct {
	rules RuleLookup
}

func NewSettlementCalculator(rules RuleLookup) *SettlementCalculator {
	return &SettlementCalculator{rules: rules}
}

// ComputeSplit finds the applicable rule and splits the amount. A missing
// rule is reported as ErrNoApplicableRule; there is no default split.
func (c *SettlementCalculator) ComputeSplit(ctx context.Context, p SplitPayment) (Split, error) {
	if p.Amount.IsNegative() {
		return Split{}, validationError("payment amount must not be negative")
	}

	var (
		adminCut decimal.Decimal
		ruleID   uuid.UUID
	)
	switch p.CutType {
	case models.CutTypeTierBased:
		rule, err := c.rules.LookupTierRule(ctx, p.Tier, p.Duration)
		if err != nil {
			return Split{}, noRule(err, fmt.Sprintf("tier %s/%s", p.Tier, p.Duration))
		}
		adminCut, ruleID = rule.AdminCutPercentage, rule.ID
	case models.CutTypeFeeBased:
		rule, err := c.rules.LookupFeeRule(ctx, p.Amount)
		if err != nil {
			return Split{}, noRule(err, "price "+p.Amount.StringFixed(2))
		}
		adminCut, ruleID = rule.AdminCutPercentage, rule.ID
	default:
		return Split{}, validationError("unknown cut type %q", p.CutType)
	}

	adminAmount, gymAmount := SplitAmount(p.Amount, adminCut)
	return Split{
		AdminAmount:        adminAmount,
		GymAmount:          gymAmount,
		AdminCutPercentage: adminCut,
		CutType:            p.CutType,
		RuleID:             ruleID,
	}, nil
}

func noRule(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoApplicableRule, what)
	}
	return err
}

// SplitAmount rounds the admin share to paise and gives the gym the rest,
// so the two parts always add back to amount.
func SplitAmount(amount, adminCut decimal.Decimal) (adminAmount, gymAmount decimal.Decimal) {
	adminAmount = amount.Mul(adminCut).Div(hundred).Round(2)
	gymAmount = amount.Sub(adminAmount)
	return adminAmount, gymAmount
}

// SettlementService persists splits on payments and credits gym balances.
type SettlementService struct {
	db     *gorm.DB
	rates  *RateTable
	logger zerolog.Logger
	now    func() time.Time
}

func NewSettlementService(db *gorm.DB, rates *RateTable, logger zerolog.Logger) *SettlementService {
	return &SettlementService{
		db:     db,
		rates:  rates,
		logger: logger.With().Str("component", "SettlementService").Logger(),
		now:    time.Now,
	}
}

// Preview computes a split against the current rules without writing.
func (s *SettlementService) Preview(ctx context.Context, p SplitPayment) (Split, error) {
	return NewSettlementCalculator(s.rates).ComputeSplit(ctx, p)
}

type CompletedPayment struct {
	GymID    uuid.UUID
	UserID   uuid.UUID
	Amount   decimal.Decimal
	CutType  string
	Tier     string
	Duration string
}

// RecordCompletedPayment stores a completed payment and settles it. If
// settlement fails the payment stays recorded and unsettled, and the error
// is returned alongside it so the sweep can pick it up once configuration
// is fixed.
func (s *SettlementService) RecordCompletedPayment(ctx context.Context, in CompletedPayment) (*models.Payment, Split, error) {
	if !in.Amount.IsPositive() {
		return nil, Split{}, validationError("payment amount must be greater than zero")
	}
	payment := models.Payment{
		GymID:   in.GymID,
		UserID:  in.UserID,
		Amount:  in.Amount,
		CutType: in.CutType,
		Status:  models.PaymentCompleted,
	}
	switch in.CutType {
	case models.CutTypeTierBased:
		if err := validateTierKey(in.Tier, in.Duration); err != nil {
			return nil, Split{}, err
		}
		payment.Tier, payment.Duration = &in.Tier, &in.Duration
	case models.CutTypeFeeBased:
	default:
		return nil, Split{}, validationError("unknown cut type %q", in.CutType)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gym models.Gym
		if err := tx.Select("gym_id").First(&gym, "gym_id = ?", in.GymID).Error; err != nil {
			return persistence("load gym", err)
		}
		return persistence("create payment", tx.Create(&payment).Error)
	})
	if err != nil {
		return nil, Split{}, err
	}

	split, err := s.SettlePayment(ctx, payment.ID)
	if err != nil {
		return &payment, Split{}, err
	}
	payment.AdminAmount = decimal.NewNullDecimal(split.AdminAmount)
	payment.GymAmount = decimal.NewNullDecimal(split.GymAmount)
	return &payment, split, nil
}

// SettlePayment computes the split for a completed payment, records it on
// the payment and credits the gym, all in one transaction.
func (s *SettlementService) SettlePayment(ctx context.Context, paymentID uuid.UUID) (Split, error) {
	var split Split
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := forUpdate(tx).First(&payment, "id = ?", paymentID).Error; err != nil {
			return persistence("load payment", err)
		}
		if payment.SettledAt != nil {
			return fmt.Errorf("payment %s: %w", paymentID, ErrAlreadySettled)
		}
		if payment.Status != models.PaymentCompleted {
			return validationError("payment %s is %s, only completed payments settle", paymentID, payment.Status)
		}

		in := SplitPayment{Amount: payment.Amount, CutType: payment.CutType}
		if payment.Tier != nil {
			in.Tier = *payment.Tier
		}
		if payment.Duration != nil {
			in.Duration = *payment.Duration
		}

		var err error
		split, err = NewSettlementCalculator(s.rates.WithTx(tx)).ComputeSplit(ctx, in)
		if err != nil {
			return err
		}

		var gym models.Gym
		if err := forUpdate(tx).First(&gym, "gym_id = ?", payment.GymID).Error; err != nil {
			return persistence("load gym", err)
		}

		result := tx.Model(&models.Payment{}).
			Where("id = ? AND settled_at IS NULL", payment.ID).
			Updates(map[string]any{
				"admin_amount": split.AdminAmount,
				"gym_amount":   split.GymAmount,
				"settled_at":   s.now(),
			})
		if result.Error != nil {
			return persistence("record settlement", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("payment %s: %w", paymentID, ErrAlreadySettled)
		}

		newBalance := gym.Balance.Add(split.GymAmount)
		if err := tx.Model(&models.Gym{}).Where("gym_id = ?", gym.GymID).Update("balance", newBalance).Error; err != nil {
			return persistence("credit gym balance", err)
		}
		return nil
	})
	if err != nil {
		return Split{}, err
	}

	s.logger.Info().
		Str("payment_id", paymentID.String()).
		Str("admin_amount", split.AdminAmount.StringFixed(2)).
		Str("gym_amount", split.GymAmount.StringFixed(2)).
		Msg("payment settled")
	return split, nil
}

// SettlePending settles completed, unsettled payments oldest first, one
// transaction each. Failures are logged and collected; they do not stop
// the sweep.
func (s *SettlementService) SettlePending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}

	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("status = ? AND settled_at IS NULL", models.PaymentCompleted).
		Order("created_at asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, persistence("list unsettled payments", err)
	}

	settled := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, err := s.SettlePayment(ctx, id)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, ErrAlreadySettled):
		case errors.Is(err, ErrNoApplicableRule):
			s.logger.Error().Err(err).Str("payment_id", id.String()).Msg("no revenue rule configured for payment")
			errs = append(errs, err)
		default:
			s.logger.Error().Err(err).Str("payment_id", id.String()).Msg("settlement failed")
			errs = append(errs, err)
		}
	}
	return settled, errors.Join(errs...)
}

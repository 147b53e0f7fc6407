package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	hundred          = decimal.NewFromInt(100)
	percentTolerance = decimal.New(1, -2)
)

// RateTable stores the revenue-split configuration and answers lookups
// for settlement. Writes are validated before anything is persisted.
type RateTable struct {
	db     *gorm.DB
	audit  auditTrail
	logger zerolog.Logger
}

func NewRateTable(db *gorm.DB, recorder ActivityRecorder, logger zerolog.Logger) *RateTable {
	logger = logger.With().Str("component", "RateTable").Logger()
	return &RateTable{
		db:     db,
		audit:  newAuditTrail(recorder, logger),
		logger: logger,
	}
}

// WithTx returns a copy of the table bound to an open transaction.
func (r *RateTable) WithTx(tx *gorm.DB) *RateTable {
	cp := *r
	cp.db = tx
	return &cp
}

// ValidateSplit checks that both cuts are within [0,100] and sum to 100
// within 0.01.
func ValidateSplit(adminCut, gymCut decimal.Decimal) error {
	if !isCents(adminCut) || !isCents(gymCut) {
		return validationError("cut percentages allow at most two decimal places")
	}
	if adminCut.IsNegative() || gymCut.IsNegative() {
		return validationError("cut percentages must not be negative")
	}
	if adminCut.GreaterThan(hundred) || gymCut.GreaterThan(hundred) {
		return validationError("cut percentages must not exceed 100")
	}
	if adminCut.Add(gymCut).Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return validationError("admin and gym percentages must add up to 100, got %s", adminCut.Add(gymCut).String())
	}
	return nil
}

func validateTierKey(tier, duration string) error {
	if !slices.Contains(models.Tiers, tier) {
		return validationError("unknown tier %q", tier)
	}
	if !slices.Contains(models.Durations, duration) {
		return validationError("unknown duration %q", duration)
	}
	return nil
}

// isCents reports whether d fits a numeric(_,2) column without rounding.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func validateRange(start, end decimal.Decimal) error {
	if !isCents(start) || !isCents(end) {
		return validationError("price range bounds allow at most two decimal places")
	}
	if start.IsNegative() {
		return validationError("price range start must not be negative")
	}
	if !end.GreaterThan(start) {
		return fmt.Errorf("%w: [%s, %s]", ErrInvalidRange, start, end)
	}
	return nil
}

func (r *RateTable) AddTierRule(ctx context.Context, auth AuthContext, tier, duration string, adminCut, gymCut decimal.Decimal) (uuid.UUID, error) {
	if err := validateTierKey(tier, duration); err != nil {
		return uuid.Nil, err
	}
	if err := ValidateSplit(adminCut, gymCut); err != nil {
		return uuid.Nil, err
	}

	rule := models.RevenueRule{
		Tier:               tier,
		Duration:           duration,
		AdminCutPercentage: adminCut,
		GymCutPercentage:   gymCut,
		CutType:            models.CutTypeTierBased,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RevenueRule{}).Where("tier = ? AND duration = ?", tier, duration).Count(&count).Error; err != nil {
			return persistence("check duplicate tier rule", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateRule, tier, duration)
		}
		if err := tx.Create(&rule).Error; err != nil {
			// a concurrent writer won the unique index after our count
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s/%s", ErrDuplicateRule, tier, duration)
			}
			return persistence("create tier rule", err)
		}

		r.audit.record(tx, auth, models.ActionAddRevenueSetting, map[string]any{
			"cut_type":             models.CutTypeTierBased,
			"rule_id":              rule.ID,
			"tier":                 tier,
			"duration":             duration,
			"admin_cut_percentage": adminCut.String(),
			"gym_cut_percentage":   gymCut.String(),
		})
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	r.logger.Info().Str("rule_id", rule.ID.String()).Str("tier", tier).Str("duration", duration).Msg("tier rule added")
	return rule.ID, nil
}

func (r *RateTable) UpdateTierRule(ctx context.Context, auth AuthContext, id uuid.UUID, adminCut, gymCut decimal.Decimal) error {
	if err := ValidateSplit(adminCut, gymCut); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule models.RevenueRule
		if err := tx.First(&rule, "id = ?", id).Error; err != nil {
			return persistence("load tier rule", err)
		}

		if err := tx.Model(&rule).Updates(map[string]any{
			"admin_cut_percentage":     adminCut,
			"gym_owner_cut_percentage": gymCut,
		}).Error; err != nil {
			return persistence("update tier rule", err)
		}

		r.audit.record(tx, auth, models.ActionUpdateRevenueSettings, map[string]any{
			"cut_type":             models.CutTypeTierBased,
			"rule_id":              id,
			"tier":                 rule.Tier,
			"duration":             rule.Duration,
			"admin_cut_percentage": adminCut.String(),
			"gym_cut_percentage":   gymCut.String(),
		})
		return nil
	})
}

func (r *RateTable) DeleteTierRule(ctx context.Context, auth AuthContext, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.RevenueRule{}, "id = ?", id)
		if result.Error != nil {
			return persistence("delete tier rule", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("tier rule %s: %w", id, ErrNotFound)
		}

		r.audit.record(tx, auth, models.ActionDeleteRevenueSetting, map[string]any{
			"cut_type": models.CutTypeTierBased,
			"rule_id":  id,
		})
		return nil
	})
}

func (r *RateTable) AddFeeRule(ctx context.Context, auth AuthContext, start, end, adminCut, gymCut decimal.Decimal) (uuid.UUID, error) {
	if err := ValidateSplit(adminCut, gymCut); err != nil {
		return uuid.Nil, err
	}
	if err := validateRange(start, end); err != nil {
		return uuid.Nil, err
	}

	rule := models.FeeRule{
		PriceRangeStart:    start,
		PriceRangeEnd:      end,
		AdminCutPercentage: adminCut,
		GymCutPercentage:   gymCut,
		CutType:            models.CutTypeFeeBased,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockFeeRules(tx); err != nil {
			return err
		}
		if err := checkOverlap(tx, start, end, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(&rule).Error; err != nil {
			return persistence("create fee rule", err)
		}

		r.audit.record(tx, auth, models.ActionAddRevenueSetting, map[string]any{
			"cut_type":             models.CutTypeFeeBased,
			"rule_id":              rule.ID,
			"price_range_start":    start.String(),
			"price_range_end":      end.String(),
			"admin_cut_percentage": adminCut.String(),
			"gym_cut_percentage":   gymCut.String(),
		})
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	r.logger.Info().Str("rule_id", rule.ID.String()).Str("start", start.String()).Str("end", end.String()).Msg("fee rule added")
	return rule.ID, nil
}

func (r *RateTable) UpdateFeeRule(ctx context.Context, auth AuthContext, id uuid.UUID, start, end, adminCut, gymCut decimal.Decimal) error {
	if err := ValidateSplit(adminCut, gymCut); err != nil {
		return err
	}
	if err := validateRange(start, end); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockFeeRules(tx); err != nil {
			return err
		}
		var rule models.FeeRule
		if err := tx.First(&rule, "id = ?", id).Error; err != nil {
			return persistence("load fee rule", err)
		}
		if err := checkOverlap(tx, start, end, id); err != nil {
			return err
		}

		if err := tx.Model(&rule).Updates(map[string]any{
			"price_range_start":    start,
			"price_range_end":      end,
			"admin_cut_percentage": adminCut,
			"gym_cut_percentage":   gymCut,
		}).Error; err != nil {
			return persistence("update fee rule", err)
		}

		r.audit.record(tx, auth, models.ActionUpdateRevenueSettings, map[string]any{
			"cut_type":             models.CutTypeFeeBased,
			"rule_id":              id,
			"price_range_start":    start.String(),
			"price_range_end":      end.String(),
			"admin_cut_percentage": adminCut.String(),
			"gym_cut_percentage":   gymCut.String(),
		})
		return nil
	})
}

func (r *RateTable) DeleteFeeRule(ctx context.Context, auth AuthContext, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.FeeRule{}, "id = ?", id)
		if result.Error != nil {
			return persistence("delete fee rule", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("fee rule %s: %w", id, ErrNotFound)
		}

		r.audit.record(tx, auth, models.ActionDeleteRevenueSetting, map[string]any{
			"cut_type": models.CutTypeFeeBased,
			"rule_id":  id,
		})
		return nil
	})
}

// checkOverlap rejects [start,end] if it intersects any stored range other
// than exclude. Ranges are closed on both ends.
func checkOverlap(tx *gorm.DB, start, end decimal.Decimal, exclude uuid.UUID) error {
	query := tx.Model(&models.FeeRule{}).
		Where("price_range_start <= ? AND price_range_end >= ?", end, start)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}

	var clash models.FeeRule
	err := query.Order("price_range_start asc").Limit(1).Find(&clash).Error
	if err != nil {
		return persistence("check fee range overlap", err)
	}
	if clash.ID != uuid.Nil {
		return fmt.Errorf("%w: [%s, %s] intersects [%s, %s]",
			ErrOverlappingRange, start, end, clash.PriceRangeStart, clash.PriceRangeEnd)
	}
	return nil
}

func (r *RateTable) LookupTierRule(ctx context.Context, tier, duration string) (*models.RevenueRule, error) {
	var rule models.RevenueRule
	if err := r.db.WithContext(ctx).Where("tier = ? AND duration = ?", tier, duration).First(&rule).Error; err != nil {
		return nil, persistence(fmt.Sprintf("lookup tier rule %s/%s", tier, duration), err)
	}
	return &rule, nil
}

func (r *RateTable) LookupFeeRule(ctx context.Context, price decimal.Decimal) (*models.FeeRule, error) {
	var rule models.FeeRule
	if err := r.db.WithContext(ctx).
		Where("price_range_start <= ? AND price_range_end >= ?", price, price).
		First(&rule).Error; err != nil {
		return nil, persistence(fmt.Sprintf("lookup fee rule for %s", price), err)
	}
	return &rule, nil
}

func (r *RateTable) ListTierRules(ctx context.Context) ([]models.RevenueRule, error) {
	var rules []models.RevenueRule
	if err := r.db.WithContext(ctx).Order("tier asc, duration asc").Find(&rules).Error; err != nil {
		return nil, persistence("list tier rules", err)
	}
	return rules, nil
}

func (r *RateTable) ListFeeRules(ctx context.Context) ([]models.FeeRule, error) {
	var rules []models.FeeRule
	if err := r.db.WithContext(ctx).Order("price_range_start asc").Find(&rules).Error; err != nil {
		return nil, persistence("list fee rules", err)
	}
	return rules, nil
}

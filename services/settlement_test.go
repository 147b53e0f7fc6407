package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type staticRules struct {
	tier map[string]decimal.Decimal
	fee  []models.FeeRule
}

func (s staticRules) LookupTierRule(_ context.Context, tier, duration string) (*models.RevenueRule, error) {
	cut, ok := s.tier[tier+"/"+duration]
	if !ok {
		return nil, fmt.Errorf("lookup: %w", ErrNotFound)
	}
	return &models.RevenueRule{ID: uuid.New(), Tier: tier, Duration: duration, AdminCutPercentage: cut, GymCutPercentage: hundred.Sub(cut)}, nil
}

func (s staticRules) LookupFeeRule(_ context.Context, price decimal.Decimal) (*models.FeeRule, error) {
	for i := range s.fee {
		r := s.fee[i]
		if price.GreaterThanOrEqual(r.PriceRangeStart) && price.LessThanOrEqual(r.PriceRangeEnd) {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("lookup: %w", ErrNotFound)
}

func TestSplitConservation(t *testing.T) {
	amounts := []string{"0.01", "999.99", "100000.00", "1", "333.33"}
	cuts := []string{"0", "12.5", "30", "33.33", "66.67", "100"}

	for _, a := range amounts {
		for _, c := range cuts {
			amount := d(a)
			admin, gym := SplitAmount(amount, d(c))
			if !admin.Add(gym).Equal(amount) {
				t.Errorf("SplitAmount(%s, %s%%): %s + %s != %s", a, c, admin, gym, a)
			}
			if !admin.Equal(admin.Round(2)) || !gym.Equal(gym.Round(2)) {
				t.Errorf("SplitAmount(%s, %s%%): shares not in paise: %s / %s", a, c, admin, gym)
			}
			if admin.IsNegative() || gym.IsNegative() {
				t.Errorf("SplitAmount(%s, %s%%): negative share %s / %s", a, c, admin, gym)
			}
		}
	}
}

func TestComputeSplit(t *testing.T) {
	calc := NewSettlementCalculator(staticRules{
		tier: map[string]decimal.Decimal{"Tier1/Monthly": d("30")},
		fee: []models.FeeRule{
			{ID: uuid.New(), PriceRangeStart: d("0"), PriceRangeEnd: d("1000"), AdminCutPercentage: d("20"), GymCutPercentage: d("80")},
		},
	})
	ctx := context.Background()

	split, err := calc.ComputeSplit(ctx, SplitPayment{Amount: d("1000"), CutType: models.CutTypeTierBased, Tier: "Tier1", Duration: "Monthly"})
	if err != nil {
		t.Fatalf("ComputeSplit tier: %v", err)
	}
	if !split.AdminAmount.Equal(d("300")) || !split.GymAmount.Equal(d("700")) {
		t.Errorf("tier split: got %s/%s, want 300/700", split.AdminAmount, split.GymAmount)
	}

	split, err = calc.ComputeSplit(ctx, SplitPayment{Amount: d("999.99"), CutType: models.CutTypeFeeBased})
	if err != nil {
		t.Fatalf("ComputeSplit fee: %v", err)
	}
	if !split.AdminAmount.Equal(d("200")) || !split.GymAmount.Equal(d("799.99")) {
		t.Errorf("fee split: got %s/%s, want 200/799.99", split.AdminAmount, split.GymAmount)
	}

	_, err = calc.ComputeSplit(ctx, SplitPayment{Amount: d("1000"), CutType: models.CutTypeTierBased, Tier: "Tier2", Duration: "Monthly"})
	if !errors.Is(err, ErrNoApplicableRule) {
		t.Errorf("missing tier rule: got %v, want ErrNoApplicableRule", err)
	}
	_, err = calc.ComputeSplit(ctx, SplitPayment{Amount: d("5000"), CutType: models.CutTypeFeeBased})
	if !errors.Is(err, ErrNoApplicableRule) {
		t.Errorf("missing fee rule: got %v, want ErrNoApplicableRule", err)
	}
	_, err = calc.ComputeSplit(ctx, SplitPayment{Amount: d("1000"), CutType: "coupon"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown cut type: got %v, want ErrValidation", err)
	}
}

func TestSettlePaymentCreditsGymOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGym(t, "50")

	if _, err := f.rates.AddTierRule(ctx, f.admin, "Tier1", "Monthly", d("30"), d("70")); err != nil {
		t.Fatalf("AddTierRule: %v", err)
	}

	payment, split, err := f.settlement.RecordCompletedPayment(ctx, CompletedPayment{
		GymID: g.gym.GymID, UserID: uuid.New(), Amount: d("1000"),
		CutType: models.CutTypeTierBased, Tier: "Tier1", Duration: "Monthly",
	})
	if err != nil {
		t.Fatalf("RecordCompletedPayment: %v", err)
	}
	if !split.AdminAmount.Equal(d("300")) || !split.GymAmount.Equal(d("700")) {
		t.Errorf("split: got %s/%s, want 300/700", split.AdminAmount, split.GymAmount)
	}
	assertBalance(t, f.balance(t, g.gym.GymID), "750")

	if _, err := f.settlement.SettlePayment(ctx, payment.ID); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("second settle: got %v, want ErrAlreadySettled", err)
	}
	assertBalance(t, f.balance(t, g.gym.GymID), "750")

	var stored models.Payment
	if err := f.db.First(&stored, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if stored.SettledAt == nil || !stored.AdminAmount.Valid || !stored.AdminAmount.Decimal.Equal(d("300")) {
		t.Errorf("stored settlement: settled_at %v admin %v", stored.SettledAt, stored.AdminAmount)
	}
}

func TestUnsettledPaymentIsPickedUpOnceRuleExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGym(t, "0")

	payment, _, err := f.settlement.RecordCompletedPayment(ctx, CompletedPayment{
		GymID: g.gym.GymID, UserID: uuid.New(), Amount: d("1500"), CutType: models.CutTypeFeeBased,
	})
	if !errors.Is(err, ErrNoApplicableRule) {
		t.Fatalf("RecordCompletedPayment without rule: got %v, want ErrNoApplicableRule", err)
	}
	if payment == nil {
		t.Fatal("payment should be recorded even when settlement fails")
	}
	assertBalance(t, f.balance(t, g.gym.GymID), "0")

	settled, err := f.settlement.SettlePending(ctx, 0)
	if settled != 0 || !errors.Is(err, ErrNoApplicableRule) {
		t.Errorf("SettlePending without rule: settled %d err %v", settled, err)
	}

	if _, err := f.rates.AddFeeRule(ctx, f.admin, d("1000"), d("5000"), d("10"), d("90")); err != nil {
		t.Fatalf("AddFeeRule: %v", err)
	}
	settled, err = f.settlement.SettlePending(ctx, 0)
	if err != nil || settled != 1 {
		t.Fatalf("SettlePending: settled %d err %v", settled, err)
	}
	assertBalance(t, f.balance(t, g.gym.GymID), "1350")

	settled, err = f.settlement.SettlePending(ctx, 0)
	if err != nil || settled != 0 {
		t.Errorf("SettlePending with nothing left: settled %d err %v", settled, err)
	}
}

func TestDeletingRuleKeepsSettledSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGym(t, "0")

	ruleID, err := f.rates.AddTierRule(ctx, f.admin, "Tier2", "Yearly", d("25"), d("75"))
	if err != nil {
		t.Fatalf("AddTierRule: %v", err)
	}
	payment, _, err := f.settlement.RecordCompletedPayment(ctx, CompletedPayment{
		GymID: g.gym.GymID, UserID: uuid.New(), Amount: d("12000"),
		CutType: models.CutTypeTierBased, Tier: "Tier2", Duration: "Yearly",
	})
	if err != nil {
		t.Fatalf("RecordCompletedPayment: %v", err)
	}
	if err := f.rates.DeleteTierRule(ctx, f.admin, ruleID); err != nil {
		t.Fatalf("DeleteTierRule: %v", err)
	}

	var stored models.Payment
	if err := f.db.First(&stored, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if !stored.GymAmount.Decimal.Equal(d("9000")) || !stored.AdminAmount.Decimal.Equal(d("3000")) {
		t.Errorf("stored split after rule delete: got %s/%s, want 3000/9000", stored.AdminAmount.Decimal, stored.GymAmount.Decimal)
	}
	assertBalance(t, f.balance(t, g.gym.GymID), "9000")
}

func TestRecordCompletedPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.addGym(t, "0")

	cases := []CompletedPayment{
		{GymID: g.gym.GymID, Amount: d("0"), CutType: models.CutTypeFeeBased},
		{GymID: g.gym.GymID, Amount: d("100"), CutType: models.CutTypeTierBased, Tier: "Tier1", Duration: "Hourly"},
		{GymID: g.gym.GymID, Amount: d("100"), CutType: "flat"},
	}
	for i, in := range cases {
		if _, _, err := f.settlement.RecordCompletedPayment(ctx, in); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: got %v, want ErrValidation", i, err)
		}
	}

	_, _, err := f.settlement.RecordCompletedPayment(ctx, CompletedPayment{GymID: uuid.New(), Amount: d("100"), CutType: models.CutTypeFeeBased})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown gym: got %v, want ErrNotFound", err)
	}
	if n := f.count(t, &models.Payment{}); n != 0 {
		t.Errorf("payments persisted: got %d, want 0", n)
	}
}

package budget

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusGood       Status = "Good"
	StatusNormal     Status = "Normal"
	StatusOverBudget Status = "Over Budget"
)

// MonthlyScale converts a weekly tier into the monthly threshold used by the budget
// status report. It is a fixed approximation of four weeks per month.
const MonthlyScale = 4

// Tier holds the weekly spending thresholds for one category.
type Tier struct {
	Good   decimal.Decimal `json:"good"`
	Normal decimal.Decimal `json:"normal"`
}

// Tiers maps a category key to its tier.
type Tiers map[string]Tier

// DefaultTiers returns the schedule seeded when no budget data exists yet.
func DefaultTiers() Tiers {
	return Tiers{
		"indoorCooking":  {Good: decimal.NewFromInt(12500), Normal: decimal.NewFromInt(15000)},
		"outdoorDinners": {Good: decimal.NewFromInt(3250), Normal: decimal.NewFromInt(3750)},
		"transportFees":  {Good: decimal.NewFromInt(3500), Normal: decimal.NewFromInt(4000)},
		"entertainment":  {Good: decimal.NewFromInt(3500), Normal: decimal.NewFromInt(4000)},
		"education":      {Good: decimal.NewFromInt(375), Normal: decimal.NewFromInt(500)},
		"shopping":       {Good: decimal.NewFromInt(5000), Normal: decimal.NewFromInt(6250)},
		"medicalFees":    {Good: decimal.NewFromInt(2000), Normal: decimal.NewFromInt(2500)},
	}
}

// Get returns the tier for category, or a zero tier when none is configured.
func (t Tiers) Get(category string) Tier {
	return t[category]
}

// Categories returns the configured categories in lexical order.
func (t Tiers) Categories() []string {
	categories := make([]string, 0, len(t))
	for category := range t {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Clone returns an independent copy.
func (t Tiers) Clone() Tiers {
	out := make(Tiers, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Scaled multiplies both thresholds by factor.
func (t Tier) Scaled(factor int64) Tier {
	f := decimal.NewFromInt(factor)
	return Tier{Good: t.Good.Mul(f), Normal: t.Normal.Mul(f)}
}

// Classify compares amount against the tier. Thresholds are inclusive on the high side.
func (t Tier) Classify(amount decimal.Decimal) Status {
	switch {
	case amount.GreaterThanOrEqual(t.Normal):
		return StatusOverBudget
	case amount.GreaterThanOrEqual(t.Good):
		return StatusNormal
	default:
		return StatusGood
	}
}

// ClassifyMonthly classifies a monthly total against the weekly tier scaled by MonthlyScale.
func (t Tier) ClassifyMonthly(amount decimal.Decimal) Status {
	return t.Scaled(MonthlyScale).Classify(amount)
}

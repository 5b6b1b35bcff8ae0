package ledger

import (
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustExpense(t *testing.T, category, amount, date string) expense.Expense {
	t.Helper()
	e, err := expense.NewExpense(category, amount, date)
	require.NoError(t, err)
	return e
}

func mustRecurring(t *testing.T, category, amount, frequency, date string) expense.RecurringExpense {
	t.Helper()
	r, err := expense.NewRecurringExpense(category, amount, frequency, date)
	require.NoError(t, err)
	return r
}

func testTiers() budget.Tiers {
	return budget.Tiers{
		"shopping":  {Good: decimal.NewFromInt(100), Normal: decimal.NewFromInt(200)},
		"education": {Good: decimal.NewFromInt(10), Normal: decimal.NewFromInt(20)},
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{day(2023, 5, 17), "2023-W19 (2023-05-14)"},
		{day(2023, 5, 14), "2023-W19 (2023-05-14)"},
		{day(2023, 5, 13), "2023-W18 (2023-05-07)"},
		{day(2023, 5, 1), "2023-W17 (2023-04-30)"},
		{day(2023, 1, 1), "2022-W52 (2023-01-01)"},
		{day(2023, 1, 7), "2022-W52 (2023-01-01)"},
		{time.Date(2023, 5, 20, 23, 59, 0, 0, time.UTC), "2023-W19 (2023-05-14)"},
	}
	for _, tt := range tests {
		t.Run(tt.day.Format(time.RFC3339), func(t *testing.T) {
			assert.Equal(t, tt.want, WeekKey(tt.day))
		})
	}
}

func TestBuildBudgetStatus(t *testing.T) {
	// given
	data := store.Dataset{
		Expenses: []expense.Expense{
			mustExpense(t, "shopping", "300", "2023-05-01"),
			mustExpense(t, "shopping", "100", "2023-05-16"),
			mustExpense(t, "education", "5", "2023-04-30"),
			mustExpense(t, "education", "7", "2023-06-01"),
			mustExpense(t, "gifts", "1", "2023-05-15"),
		},
		Recurring: []expense.RecurringExpense{
			mustRecurring(t, "education", "20", "weekly", "2023-04-24"),
		},
		Tiers: testTiers(),
	}

	// when
	status := BuildBudgetStatus(data, time.Date(2023, 5, 17, 12, 0, 0, 0, time.UTC))

	// then
	assert.Len(t, status.Weekly, 5)
	assert.Equal(t, "300", status.Weekly["2023-W17 (2023-04-30)"]["shopping"].String())
	assert.Equal(t, "20", status.Weekly["2023-W17 (2023-04-30)"]["education"].String())
	assert.Equal(t, "0", status.Weekly["2023-W18 (2023-05-07)"]["shopping"].String())
	assert.Equal(t, "100", status.Weekly["2023-W19 (2023-05-14)"]["shopping"].String())
	assert.Equal(t, "1", status.Weekly["2023-W19 (2023-05-14)"]["gifts"].String())
	_, spentGifts := status.Weekly["2023-W18 (2023-05-07)"]["gifts"]
	assert.False(t, spentGifts)

	assert.Equal(t, "400", status.Total["shopping"].Amount.String())
	assert.Equal(t, budget.StatusNormal, status.Total["shopping"].Status)
	assert.Equal(t, "100", status.Total["education"].Amount.String())
	assert.Equal(t, budget.StatusOverBudget, status.Total["education"].Status)
	assert.Equal(t, "1", status.Total["gifts"].Amount.String())
	assert.Equal(t, budget.StatusOverBudget, status.Total["gifts"].Status)

	assert.Equal(t, "121", status.CurrentWeekExpenses.String())
}

func TestBuildBudgetStatus_EmptyLedgerListsEveryTier(t *testing.T) {
	status := BuildBudgetStatus(store.Dataset{Tiers: testTiers()}, day(2023, 5, 17))

	assert.Empty(t, status.Weekly)
	assert.Len(t, status.Total, 2)
	for category, total := range status.Total {
		assert.True(t, total.Amount.IsZero(), category)
		assert.Equal(t, budget.StatusGood, total.Status, category)
	}
	assert.True(t, status.CurrentWeekExpenses.IsZero())
}

func TestBuildBudgetStatus_CurrentWeekSpansMonths(t *testing.T) {
	data := store.Dataset{
		Expenses: []expense.Expense{
			mustExpense(t, "shopping", "50", "2023-05-30"),
		},
		Recurring: []expense.RecurringExpense{
			mustRecurring(t, "education", "20", "weekly", "2023-04-24"),
		},
		Tiers: testTiers(),
	}

	status := BuildBudgetStatus(data, day(2023, 6, 1))

	assert.True(t, status.Total["shopping"].Amount.IsZero())
	assert.Equal(t, "80", status.Total["education"].Amount.String())
	assert.Equal(t, "70", status.CurrentWeekExpenses.String())
}

func TestBuildBudgetStatus_MonthlyClampInsideWindow(t *testing.T) {
	data := store.Dataset{
		Recurring: []expense.RecurringExpense{
			mustRecurring(t, "shopping", "400", "monthly", "2023-01-31"),
		},
		Tiers: testTiers(),
	}

	status := BuildBudgetStatus(data, day(2023, 4, 10))

	assert.Equal(t, "400", status.Weekly["2023-W17 (2023-04-30)"]["shopping"].String())
	assert.Equal(t, budget.StatusNormal, status.Total["shopping"].Status)
}

func TestBuildBudgetStatus_ClassificationBoundaries(t *testing.T) {
	tests := []struct {
		amount string
		want   budget.Status
	}{
		{"800", budget.StatusOverBudget},
		{"799.99", budget.StatusNormal},
		{"400", budget.StatusNormal},
		{"399.99", budget.StatusGood},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			data := store.Dataset{
				Expenses: []expense.Expense{mustExpense(t, "shopping", tt.amount, "2023-05-10")},
				Tiers:    testTiers(),
			}

			status := BuildBudgetStatus(data, day(2023, 5, 17))

			assert.Equal(t, tt.want, status.Total["shopping"].Status)
		})
	}
}

package ledger

import (
	"fmt"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/store"
	"github.com/shopspring/decimal"
)

type CategoryTotal struct {
	Amount decimal.Decimal
	Status budget.Status
}

// BudgetStatus is a snapshot of the current month.
type BudgetStatus struct {
	// Weekly maps a week key to the per-category totals of that week.
	Weekly              map[string]map[string]decimal.Decimal
	Total               map[string]CategoryTotal
	CurrentWeekExpenses decimal.Decimal
}

// WeekKey identifies the Sunday-start week containing day, e.g. "2023-W18 (2023-04-30)".
// The year and week number are the ISO week of that Sunday.
func WeekKey(day time.Time) string {
	sunday := utils.WeekStart(expense.Day(day))
	year, week := sunday.ISOWeek()
	return fmt.Sprintf("%d-W%02d (%s)", year, week, sunday.Format(expense.DateLayout))
}

// contribution is one dated amount: a direct expense or one occurrence of a recurring one.
type contribution struct {
	category string
	amount   decimal.Decimal
	date     time.Time
}

func contributions(data store.Dataset, start, end time.Time) []contribution {
	out := make([]contribution, 0, len(data.Expenses))
	for _, e := range data.Expenses {
		if inRange(e.Date, start, end) {
			out = append(out, contribution{e.Category, e.Amount, e.Date})
		}
	}
	for _, r := range data.Recurring {
		for _, day := range expense.Occurrences(r, start, end) {
			out = append(out, contribution{r.Category, r.Amount, day})
		}
	}
	return out
}

// BuildBudgetStatus aggregates the month containing now. Direct expenses count when
// dated inside the month; recurring ones contribute each occurrence inside the month.
// Monthly totals are classified against the weekly tiers scaled by budget.MonthlyScale.
func BuildBudgetStatus(data store.Dataset, now time.Time) BudgetStatus {
	today := expense.Day(now)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	status := BudgetStatus{
		Weekly:              map[string]map[string]decimal.Decimal{},
		Total:               map[string]CategoryTotal{},
		CurrentWeekExpenses: decimal.Zero,
	}
	for category := range data.Tiers {
		status.Total[category] = CategoryTotal{Amount: decimal.Zero}
	}

	for _, c := range contributions(data, monthStart, monthEnd) {
		key := WeekKey(c.date)
		week, ok := status.Weekly[key]
		if !ok {
			week = make(map[string]decimal.Decimal, len(data.Tiers))
			for category := range data.Tiers {
				week[category] = decimal.Zero
			}
			status.Weekly[key] = week
		}
		week[c.category] = week[c.category].Add(c.amount)

		total := status.Total[c.category]
		total.Amount = total.Amount.Add(c.amount)
		status.Total[c.category] = total
	}

	for category, total := range status.Total {
		total.Status = data.Tiers.Get(category).ClassifyMonthly(total.Amount)
		status.Total[category] = total
	}

	weekStart := utils.WeekStart(today)
	for _, c := range contributions(data, weekStart, weekStart.AddDate(0, 0, 6)) {
		status.CurrentWeekExpenses = status.CurrentWeekExpenses.Add(c.amount)
	}
	return status
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

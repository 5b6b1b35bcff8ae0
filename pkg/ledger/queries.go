package ledger

import (
	"fmt"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/shopspring/decimal"
)

// MaxSummaryDays bounds DailySummary.
const MaxSummaryDays = 366

// CalendarEntry is a direct expense together with its position in the ledger.
type CalendarEntry struct {
	Index   int
	Expense expense.Expense
}

type MonthCalendar struct {
	Year  int
	Month time.Month
	// Days holds the direct expenses of each day of the month that has any.
	Days map[int][]CalendarEntry
	// Weeks lays the month out in Sunday-first rows; 0 marks days of adjacent months.
	Weeks [][7]int
}

type DailyTotal struct {
	Date  time.Time
	Total decimal.Decimal
}

// FilterRange returns the expenses dated within [start, end] in their stored order.
// Recurring expenses are not expanded here.
func FilterRange(expenses []expense.Expense, start, end time.Time) []expense.Expense {
	start, end = expense.Day(start), expense.Day(end)
	out := make([]expense.Expense, 0)
	for _, e := range expenses {
		if inRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// BuildWeeklyAlarm reports every category whose direct expenses in the Sunday-start week
// containing now exceed its tier. Exceeding normal suppresses the good-limit caution.
func BuildWeeklyAlarm(expenses []expense.Expense, tiers budget.Tiers, now time.Time) []string {
	weekStart := utils.WeekStart(expense.Day(now))

	var order []string
	totals := map[string]decimal.Decimal{}
	for _, e := range FilterRange(expenses, weekStart, weekStart.AddDate(0, 0, 6)) {
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	alarms := make([]string, 0)
	for _, category := range order {
		total, tier := totals[category], tiers.Get(category)
		switch {
		case total.GreaterThan(tier.Normal):
			alarms = append(alarms, fmt.Sprintf("Warning: %s expenses ($%s) have exceeded the normal limit ($%s)",
				category, total.StringFixed(2), tier.Normal.StringFixed(2)))
		case total.GreaterThan(tier.Good):
			alarms = append(alarms, fmt.Sprintf("Caution: %s expenses ($%s) have exceeded the good limit ($%s)",
				category, total.StringFixed(2), tier.Good.StringFixed(2)))
		}
	}
	return alarms
}

// BuildMonthlyCalendar groups direct expenses by day of month and lays out the month grid.
func BuildMonthlyCalendar(expenses []expense.Expense, year int, month time.Month) (MonthCalendar, error) {
	if month < time.January || month > time.December {
		return MonthCalendar{}, fmt.Errorf("%w: month %d", ErrInvalidRange, month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := expense.DaysIn(year, month)

	cal := MonthCalendar{Year: year, Month: month, Days: map[int][]CalendarEntry{}}
	end := first.AddDate(0, 0, last-1)
	for i, e := range expenses {
		if inRange(e.Date, first, end) {
			cal.Days[e.Date.Day()] = append(cal.Days[e.Date.Day()], CalendarEntry{Index: i, Expense: e})
		}
	}

	var week [7]int
	col := int(first.Weekday())
	for day := 1; day <= last; day++ {
		week[col] = day
		col++
		if col == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week, col = [7]int{}, 0
		}
	}
	if col > 0 {
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal, nil
}

// BuildDailySummary returns one total per day for the numDays days ending with today,
// oldest first, including days without expenses.
func BuildDailySummary(expenses []expense.Expense, today time.Time, numDays int) ([]DailyTotal, error) {
	if numDays < 1 || numDays > MaxSummaryDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidRange, MaxSummaryDays)
	}
	today = expense.Day(today)
	start := today.AddDate(0, 0, -(numDays - 1))

	totals := make(map[string]decimal.Decimal, numDays)
	for _, e := range FilterRange(expenses, start, today) {
		key := e.Date.Format(expense.DateLayout)
		totals[key] = totals[key].Add(e.Amount)
	}

	summary := make([]DailyTotal, 0, numDays)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		total, ok := totals[day.Format(expense.DateLayout)]
		if !ok {
			total = decimal.Zero
		}
		summary = append(summary, DailyTotal{Date: day, Total: total})
	}
	return summary, nil
}

// SummarizeByCategory totals direct expenses per category over all time.
func SummarizeByCategory(expenses []expense.Expense) map[string]decimal.Decimal {
	summary := map[string]decimal.Decimal{}
	for _, e := range expenses {
		summary[e.Category] = summary[e.Category].Add(e.Amount)
	}
	return summary
}

package reminder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/shopspring/decimal"
)

const Subject = "Weekly Expense Reminder"

// Notifier delivers a rendered reminder to a single recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Summary is everything the weekly reminder reports on.
type Summary struct {
	CategoryTotals map[string]decimal.Decimal
	CurrentWeek    decimal.Decimal
	Alarms         []string
	Tiers          budget.Tiers
	Recurring      []expense.Record
}

// RenderBody formats s as the plain text reminder body.
func RenderBody(s Summary) string {
	var b strings.Builder

	b.WriteString("Weekly Expense Summary:\n")
	if len(s.CategoryTotals) == 0 {
		b.WriteString("  no expenses recorded\n")
	}
	categories := make([]string, 0, len(s.CategoryTotals))
	for category := range s.CategoryTotals {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(&b, "  %s: $%s\n", category, s.CategoryTotals[category].StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSpent this week: $%s\n", s.CurrentWeek.StringFixed(2))

	if len(s.Alarms) > 0 {
		b.WriteString("\nAlarms:\n")
		for _, alarm := range s.Alarms {
			fmt.Fprintf(&b, "  %s\n", alarm)
		}
	}

	b.WriteString("\nBudget Status:\n")
	for _, category := range s.Tiers.Categories() {
		tier := s.Tiers[category]
		fmt.Fprintf(&b, "  %s: good $%s, normal $%s\n", category, tier.Good.StringFixed(2), tier.Normal.StringFixed(2))
	}

	b.WriteString("\nRecurring Expenses:\n")
	if len(s.Recurring) == 0 {
		b.WriteString("  none\n")
	}
	for _, r := range s.Recurring {
		fmt.Fprintf(&b, "  %s: $%s %s since %s\n", r.Category, r.Amount.StringFixed(2), r.Frequency, r.Date)
	}
	return b.String()
}

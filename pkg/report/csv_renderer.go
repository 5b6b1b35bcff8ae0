package report

import (
	"bytes"
	"encoding/csv"
	"sort"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetStatusRenderer interface {
	RenderBudgetStatus(status ledger.BudgetStatus, tiers budget.Tiers) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderBudgetStatus writes one column per category and one row per week, framed by
// the weekly tiers above and the monthly totals and statuses below.
func (t *CsvRendererImpl) RenderBudgetStatus(status ledger.BudgetStatus, tiers budget.Tiers) (string, error) {
	categories := statusCategories(status, tiers)

	header := make([]string, 0, len(categories)+2)
	header = append(header, "Week")
	header = append(header, categories...)
	header = append(header, "SUM")

	goodRow := amountRow("Good weekly", categories, func(c string) decimal.Decimal { return tiers.Get(c).Good })
	normalRow := amountRow("Normal weekly", categories, func(c string) decimal.Decimal { return tiers.Get(c).Normal })

	weekKeys := make([]string, 0, len(status.Weekly))
	for key := range status.Weekly {
		weekKeys = append(weekKeys, key)
	}
	sort.Strings(weekKeys)
	weekRows := make([][]string, 0, len(weekKeys))
	for _, key := range weekKeys {
		week := status.Weekly[key]
		weekRows = append(weekRows, amountRow(key, categories, func(c string) decimal.Decimal { return week[c] }))
	}

	totalRow := amountRow("Total", categories, func(c string) decimal.Decimal { return status.Total[c].Amount })
	statusRow := make([]string, 0, len(categories)+2)
	statusRow = append(statusRow, "Status")
	for _, category := range categories {
		statusRow = append(statusRow, string(status.Total[category].Status))
	}
	statusRow = append(statusRow, "")

	data := make([][]string, 0, 5+len(weekRows))
	data = append(data, header, goodRow, normalRow)
	data = append(data, weekRows...)
	data = append(data, totalRow, statusRow)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func statusCategories(status ledger.BudgetStatus, tiers budget.Tiers) []string {
	seen := make(map[string]bool, len(tiers)+len(status.Total))
	categories := make([]string, 0, len(tiers)+len(status.Total))
	for category := range tiers {
		seen[category] = true
		categories = append(categories, category)
	}
	for category := range status.Total {
		if !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}
	}
	sort.Strings(categories)
	return categories
}

func amountRow(label string, categories []string, amount func(category string) decimal.Decimal) []string {
	row := make([]string, 0, len(categories)+2)
	row = append(row, label)
	sum := decimal.Zero
	for _, category := range categories {
		value := amount(category)
		sum = sum.Add(value)
		row = append(row, value.StringFixed(2))
	}
	return append(row, sum.StringFixed(2))
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	ExpensesSheet  = "Expenses"
	RecurringSheet = "RecurringExpenses"
	BudgetSheet    = "Budget"
)

var (
	expensesHeader  = []any{"Category", "Amount", "Date"}
	recurringHeader = []any{"Category", "Amount", "Frequency", "Date"}
	budgetHeader    = []any{"Category", "Good Limit", "Normal Limit"}
)

// WorkbookStore keeps the ledger in a single xlsx workbook with one sheet per table.
type WorkbookStore struct {
	path string
}

func NewWorkbookStore(path string) *WorkbookStore {
	return &WorkbookStore{path: path}
}

func (s *WorkbookStore) Load(ctx context.Context) Dataset {
	if !fileExists(s.path) {
		return seed(ctx, s, s.path)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		log.Errorf("could not open workbook %s, starting empty: %v", s.path, err)
		return Empty()
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("could not close workbook %s: %v", s.path, err)
		}
	}()

	data := Empty()
	data.Expenses = readExpenses(f)
	data.Recurring = readRecurring(f)
	if tiers := readTiers(f); len(tiers) > 0 {
		data.Tiers = tiers
	}
	return data
}

func sheetRows(f *excelize.File, sheet string) [][]string {
	rows, err := f.GetRows(sheet)
	if err != nil {
		log.Errorf("could not read sheet %s: %v", sheet, err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	// header
	return rows[1:]
}

func readExpenses(f *excelize.File) []expense.Expense {
	expenses := make([]expense.Expense, 0)
	for i, row := range sheetRows(f, ExpensesSheet) {
		if len(row) < 3 {
			log.Warnf("skipping incomplete row %d in %s", i+2, ExpensesSheet)
			continue
		}
		e, err := expense.NewExpense(row[0], row[1], row[2])
		if err != nil {
			log.Warnf("skipping row %d in %s: %v", i+2, ExpensesSheet, err)
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses
}

func readRecurring(f *excelize.File) []expense.RecurringExpense {
	recurring := make([]expense.RecurringExpense, 0)
	for i, row := range sheetRows(f, RecurringSheet) {
		if len(row) < 4 {
			log.Warnf("skipping incomplete row %d in %s", i+2, RecurringSheet)
			continue
		}
		r, err := expense.NewRecurringExpense(row[0], row[1], row[2], row[3])
		if err != nil {
			log.Warnf("skipping row %d in %s: %v", i+2, RecurringSheet, err)
			continue
		}
		recurring = append(recurring, r)
	}
	return recurring
}

func readTiers(f *excelize.File) budget.Tiers {
	tiers := budget.Tiers{}
	for i, row := range sheetRows(f, BudgetSheet) {
		if len(row) < 3 || row[0] == "" {
			continue
		}
		good, err := decimal.NewFromString(row[1])
		if err != nil {
			log.Warnf("skipping row %d in %s: %v", i+2, BudgetSheet, err)
			continue
		}
		normal, err := decimal.NewFromString(row[2])
		if err != nil {
			log.Warnf("skipping row %d in %s: %v", i+2, BudgetSheet, err)
			continue
		}
		tiers[row[0]] = budget.Tier{Good: good, Normal: normal}
	}
	return tiers
}

// Save rewrites the whole workbook. Amounts are stored as text so they read back exactly.
func (s *WorkbookStore) Save(_ context.Context, data Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return fmt.Errorf("could not prepare workbook: %w", err)
	}
	for _, sheet := range []string{RecurringSheet, BudgetSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("could not create sheet %s: %w", sheet, err)
		}
	}

	expenses := make([][]any, 0, len(data.Expenses))
	for _, e := range data.Expenses {
		expenses = append(expenses, []any{e.Category, e.Amount.String(), e.Date.Format(expense.DateLayout)})
	}
	recurring := make([][]any, 0, len(data.Recurring))
	for _, r := range data.Recurring {
		recurring = append(recurring, []any{r.Category, r.Amount.String(), string(r.Frequency), r.Date.Format(expense.DateLayout)})
	}
	tiers := make([][]any, 0, len(data.Tiers))
	for _, category := range data.Tiers.Categories() {
		tier := data.Tiers[category]
		tiers = append(tiers, []any{category, tier.Good.String(), tier.Normal.String()})
	}

	if err := writeSheet(f, ExpensesSheet, expensesHeader, expenses); err != nil {
		return err
	}
	if err := writeSheet(f, RecurringSheet, recurringHeader, recurring); err != nil {
		return err
	}
	if err := writeSheet(f, BudgetSheet, budgetHeader, tiers); err != nil {
		return err
	}

	return replaceWorkbook(f, s.path)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("could not write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("could not write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// replaceWorkbook writes f next to path and renames it into place.
func replaceWorkbook(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace workbook: %w", err)
	}
	return nil
}

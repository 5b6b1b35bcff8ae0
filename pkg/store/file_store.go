package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	log "github.com/sirupsen/logrus"
)

const (
	ExpensesFile = "expenses.json"
	BudgetsFile  = "budgets.json"
)

// FileStore keeps the ledger in two JSON files: a list of records and a budget table.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) expensesPath() string {
	return filepath.Join(s.dir, ExpensesFile)
}

func (s *FileStore) budgetsPath() string {
	return filepath.Join(s.dir, BudgetsFile)
}

func (s *FileStore) Load(ctx context.Context) Dataset {
	expensesMissing := !fileExists(s.expensesPath())
	budgetsMissing := !fileExists(s.budgetsPath())
	if expensesMissing && budgetsMissing {
		return seed(ctx, s, s.dir)
	}

	data := Empty()
	if !expensesMissing {
		data.Expenses, data.Recurring = s.loadRecords()
	}
	if !budgetsMissing {
		data.Tiers = s.loadTiers()
	}

	if expensesMissing || budgetsMissing {
		if err := s.Save(ctx, data); err != nil {
			log.Errorf("failed to restore missing ledger file: %v", err)
		}
	}
	return data
}

func (s *FileStore) loadRecords() ([]expense.Expense, []expense.RecurringExpense) {
	raw, err := os.ReadFile(s.expensesPath())
	if err != nil {
		log.Errorf("could not read %s: %v", s.expensesPath(), err)
		return []expense.Expense{}, []expense.RecurringExpense{}
	}
	var records []expense.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Errorf("could not parse %s, starting with no expenses: %v", s.expensesPath(), err)
		return []expense.Expense{}, []expense.RecurringExpense{}
	}
	return FromRecords(records)
}

func (s *FileStore) loadTiers() budget.Tiers {
	raw, err := os.ReadFile(s.budgetsPath())
	if err != nil {
		log.Errorf("could not read %s: %v", s.budgetsPath(), err)
		return budget.DefaultTiers()
	}
	var tiers budget.Tiers
	if err := json.Unmarshal(raw, &tiers); err != nil || tiers == nil {
		log.Errorf("could not parse %s, using default budget tiers: %v", s.budgetsPath(), err)
		return budget.DefaultTiers()
	}
	return tiers
}

func (s *FileStore) Save(_ context.Context, data Dataset) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}
	if err := writeJSON(s.expensesPath(), data.Records()); err != nil {
		return err
	}
	tiers := data.Tiers
	if tiers == nil {
		tiers = budget.Tiers{}
	}
	return writeJSON(s.budgetsPath(), tiers)
}

// writeJSON replaces path atomically through a temporary file in the same directory.
func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

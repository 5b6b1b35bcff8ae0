package store

import (
	"context"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	log "github.com/sirupsen/logrus"
)

// Store persists the whole ledger. Load never fails: read and parse problems are
// logged and replaced by an empty ledger and the default budget tiers.
type Store interface {
	Load(ctx context.Context) Dataset
	Save(ctx context.Context, data Dataset) error
}

type Dataset struct {
	Expenses  []expense.Expense
	Recurring []expense.RecurringExpense
	Tiers     budget.Tiers
}

// Empty returns a dataset with no expenses and the default tiers.
func Empty() Dataset {
	return Dataset{
		Expenses:  []expense.Expense{},
		Recurring: []expense.RecurringExpense{},
		Tiers:     budget.DefaultTiers(),
	}
}

// Clone returns a deep copy so callers can mutate it without touching d.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Expenses:  make([]expense.Expense, len(d.Expenses)),
		Recurring: make([]expense.RecurringExpense, len(d.Recurring)),
		Tiers:     d.Tiers.Clone(),
	}
	copy(out.Expenses, d.Expenses)
	copy(out.Recurring, d.Recurring)
	return out
}

// Records flattens both collections into their serialized form, direct expenses first.
func (d Dataset) Records() []expense.Record {
	records := make([]expense.Record, 0, len(d.Expenses)+len(d.Recurring))
	for _, e := range d.Expenses {
		records = append(records, e.ToRecord())
	}
	for _, r := range d.Recurring {
		records = append(records, r.ToRecord())
	}
	return records
}

// FromRecords splits records into their variants. Invalid records are logged and skipped.
func FromRecords(records []expense.Record) ([]expense.Expense, []expense.RecurringExpense) {
	expenses := make([]expense.Expense, 0, len(records))
	recurring := make([]expense.RecurringExpense, 0)
	for i, rec := range records {
		entry, err := expense.FromRecord(rec)
		if err != nil {
			log.Warnf("skipping stored record %d (%s %s): %v", i, rec.Category, rec.Date, err)
			continue
		}
		switch e := entry.(type) {
		case expense.Expense:
			expenses = append(expenses, e)
		case expense.RecurringExpense:
			recurring = append(recurring, e)
		}
	}
	return expenses, recurring
}

// seed persists the empty dataset on first use.
func seed(ctx context.Context, s Store, name string) Dataset {
	data := Empty()
	if err := s.Save(ctx, data); err != nil {
		log.Errorf("failed to initialize %s: %v", name, err)
	} else {
		log.Infof("initialized %s with default budget tiers", name)
	}
	return data
}

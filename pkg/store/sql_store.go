package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/budgetwatch/budgetwatch/internal/database"
	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// SQLStore keeps the ledger in the expense, recurring_expense and budget_tier tables.
// Collections are ordered by their position column.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLStore(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Load(ctx context.Context) Dataset {
	tiers, err := s.loadTiers(ctx)
	if err != nil {
		log.Errorf("could not load budget tiers, using defaults: %v", err)
		return Empty()
	}
	data := Empty()
	if len(tiers) == 0 {
		if err := s.seedTiers(ctx, data.Tiers); err != nil {
			log.Errorf("failed to initialize budget tiers: %v", err)
		} else {
			log.Info("initialized database with default budget tiers")
		}
	} else {
		data.Tiers = tiers
	}
	if data.Expenses, err = s.loadExpenses(ctx); err != nil {
		log.Errorf("could not load expenses: %v", err)
		data.Expenses = []expense.Expense{}
	}
	if data.Recurring, err = s.loadRecurring(ctx); err != nil {
		log.Errorf("could not load recurring expenses: %v", err)
		data.Recurring = []expense.RecurringExpense{}
	}
	return data
}

// seedTiers inserts tiers into an empty budget_tier table and leaves the expense
// tables alone.
func (s *SQLStore) seedTiers(ctx context.Context, tiers budget.Tiers) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := insertTiers(ctx, tx, s.dialect, tiers); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertTiers(ctx context.Context, tx *sql.Tx, dialect database.Dialect, tiers budget.Tiers) error {
	insertTier := dialect.Rebind(`INSERT INTO budget_tier (category, good, normal) VALUES (?, ?, ?)`)
	for category, tier := range tiers {
		if _, err := tx.ExecContext(ctx, insertTier, category, tier.Good.String(), tier.Normal.String()); err != nil {
			return fmt.Errorf("could not insert budget tier %s: %w", category, err)
		}
	}
	return nil
}

func (s *SQLStore) loadTiers(ctx context.Context) (budget.Tiers, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, good, normal FROM budget_tier`)
	if err != nil {
		return nil, fmt.Errorf("could not query budget tiers: %w", err)
	}
	defer rows.Close()

	tiers := budget.Tiers{}
	for rows.Next() {
		var category, good, normal string
		if err := rows.Scan(&category, &good, &normal); err != nil {
			return nil, fmt.Errorf("could not scan budget tier: %w", err)
		}
		goodValue, err := decimal.NewFromString(good)
		if err != nil {
			log.Warnf("skipping budget tier %s: %v", category, err)
			continue
		}
		normalValue, err := decimal.NewFromString(normal)
		if err != nil {
			log.Warnf("skipping budget tier %s: %v", category, err)
			continue
		}
		tiers[category] = budget.Tier{Good: goodValue, Normal: normalValue}
	}
	return tiers, rows.Err()
}

func (s *SQLStore) loadExpenses(ctx context.Context) ([]expense.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, amount, date FROM expense ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("could not query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]expense.Expense, 0)
	for rows.Next() {
		var category, amount, date string
		if err := rows.Scan(&category, &amount, &date); err != nil {
			return nil, fmt.Errorf("could not scan expense: %w", err)
		}
		e, err := expense.NewExpense(category, amount, date)
		if err != nil {
			log.Warnf("skipping stored expense (%s %s): %v", category, date, err)
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *SQLStore) loadRecurring(ctx context.Context) ([]expense.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, amount, frequency, date FROM recurring_expense ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("could not query recurring expenses: %w", err)
	}
	defer rows.Close()

	recurring := make([]expense.RecurringExpense, 0)
	for rows.Next() {
		var category, amount, frequency, date string
		if err := rows.Scan(&category, &amount, &frequency, &date); err != nil {
			return nil, fmt.Errorf("could not scan recurring expense: %w", err)
		}
		r, err := expense.NewRecurringExpense(category, amount, frequency, date)
		if err != nil {
			log.Warnf("skipping stored recurring expense (%s %s): %v", category, date, err)
			continue
		}
		recurring = append(recurring, r)
	}
	return recurring, rows.Err()
}

// Save replaces every table in a single transaction.
func (s *SQLStore) Save(ctx context.Context, data Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	for _, table := range []string{"expense", "recurring_expense", "budget_tier"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("could not clear %s: %w", table, err)
		}
	}

	insertExpense := s.dialect.Rebind(`INSERT INTO expense (position, category, amount, date) VALUES (?, ?, ?, ?)`)
	for i, e := range data.Expenses {
		if _, err := tx.ExecContext(ctx, insertExpense, i, e.Category, e.Amount.String(), e.Date.Format(expense.DateLayout)); err != nil {
			return fmt.Errorf("could not insert expense %d: %w", i, err)
		}
	}

	insertRecurring := s.dialect.Rebind(`INSERT INTO recurring_expense (position, category, amount, frequency, date) VALUES (?, ?, ?, ?, ?)`)
	for i, r := range data.Recurring {
		if _, err := tx.ExecContext(ctx, insertRecurring, i, r.Category, r.Amount.String(), string(r.Frequency), r.Date.Format(expense.DateLayout)); err != nil {
			return fmt.Errorf("could not insert recurring expense %d: %w", i, err)
		}
	}

	if err := insertTiers(ctx, tx, s.dialect, data.Tiers); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

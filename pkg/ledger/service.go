package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/reminder"
	"github.com/budgetwatch/budgetwatch/pkg/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrCategoryNotFound = errors.New("budget category not found")
	ErrInvalidRange     = fmt.Errorf("%w: invalid range", expense.ErrValidation)
	ErrDeliveryFailed   = errors.New("reminder delivery failed")
)

type Service interface {
	AddExpense(ctx context.Context, category, amount, date string) error
	AddRecurringExpense(ctx context.Context, category, amount, frequency, date string) error
	EditExpense(ctx context.Context, index int, category, amount, date string) error
	RemoveExpense(ctx context.Context, index int) error
	EditRecurringExpense(ctx context.Context, index int, category, amount, frequency, date string) error
	RemoveRecurringExpense(ctx context.Context, index int) error
	ListExpenses(ctx context.Context) []expense.Record
	ListRecurringExpenses(ctx context.Context) []expense.Record
	ClearAll(ctx context.Context) error

	BudgetStatus(ctx context.Context) BudgetStatus
	UpdateBudgetTier(ctx context.Context, category string, good, normal decimal.Decimal) error
	ListBudgetTiers(ctx context.Context) budget.Tiers

	ExpensesInRange(ctx context.Context, start, end time.Time) ([]expense.Record, error)
	WeeklyAlarm(ctx context.Context) []string
	MonthlyCalendar(ctx context.Context, year int, month time.Month) (MonthCalendar, error)
	DailySummary(ctx context.Context, numDays int) ([]DailyTotal, error)
	ExpenseSummary(ctx context.Context) map[string]decimal.Decimal
	SendWeeklyReminder(ctx context.Context, email string) error
}

// ServiceImpl owns the in-memory ledger and writes it through to the store after
// every mutation. A failed save is logged and the in-memory state is kept.
type ServiceImpl struct {
	mu       sync.RWMutex
	data     store.Dataset
	store    store.Store
	bus      *event_bus.EventBus
	notifier reminder.Notifier
	clock    utils.Clock
}

func NewService(ctx context.Context, st store.Store, bus *event_bus.EventBus, notifier reminder.Notifier) *ServiceImpl {
	data := st.Load(ctx)
	log.Infof("Loaded %d expenses, %d recurring expenses and %d budget tiers",
		len(data.Expenses), len(data.Recurring), len(data.Tiers))
	return &ServiceImpl{
		data:     data,
		store:    st,
		bus:      bus,
		notifier: notifier,
		clock:    &utils.SystemClock{},
	}
}

// mutate applies fn to a copy of the ledger, then commits and persists it. The
// ledger is untouched when fn fails.
func (s *ServiceImpl) mutate(ctx context.Context, fn func(data *store.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.data = next
	if err := s.store.Save(ctx, next); err != nil {
		log.Errorf("failed to persist ledger, keeping changes in memory: %v", err)
	}
	return nil
}

func (s *ServiceImpl) snapshot() store.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("event %s not fully handled: %v", eventType, err)
	}
}

func (s *ServiceImpl) AddExpense(ctx context.Context, category, amount, date string) error {
	e, err := expense.NewExpense(category, amount, date)
	if err != nil {
		return err
	}
	var index int
	err = s.mutate(ctx, func(data *store.Dataset) error {
		data.Expenses = append(data.Expenses, e)
		index = len(data.Expenses) - 1
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.ExpenseRecordedEvent, event_bus.ExpenseRecorded{
		Category: e.Category, Amount: e.Amount, Date: e.Date, Index: index,
	})
	return nil
}

func (s *ServiceImpl) AddRecurringExpense(ctx context.Context, category, amount, frequency, date string) error {
	r, err := expense.NewRecurringExpense(category, amount, frequency, date)
	if err != nil {
		return err
	}
	var index int
	err = s.mutate(ctx, func(data *store.Dataset) error {
		data.Recurring = append(data.Recurring, r)
		index = len(data.Recurring) - 1
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.ExpenseRecordedEvent, event_bus.ExpenseRecorded{
		Category: r.Category, Amount: r.Amount, Date: r.Date, Recurring: true, Index: index,
	})
	return nil
}

func (s *ServiceImpl) EditExpense(ctx context.Context, index int, category, amount, date string) error {
	e, err := expense.NewExpense(category, amount, date)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, func(data *store.Dataset) error {
		if index < 0 || index >= len(data.Expenses) {
			return indexError("expense", index, len(data.Expenses))
		}
		data.Expenses[index] = e
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.ExpenseRecordedEvent, event_bus.ExpenseRecorded{
		Category: e.Category, Amount: e.Amount, Date: e.Date, Index: index,
	})
	return nil
}

func (s *ServiceImpl) RemoveExpense(ctx context.Context, index int) error {
	return s.mutate(ctx, func(data *store.Dataset) error {
		if index < 0 || index >= len(data.Expenses) {
			return indexError("expense", index, len(data.Expenses))
		}
		data.Expenses = append(data.Expenses[:index], data.Expenses[index+1:]...)
		return nil
	})
}

func (s *ServiceImpl) EditRecurringExpense(ctx context.Context, index int, category, amount, frequency, date string) error {
	r, err := expense.NewRecurringExpense(category, amount, frequency, date)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, func(data *store.Dataset) error {
		if index < 0 || index >= len(data.Recurring) {
			return indexError("recurring expense", index, len(data.Recurring))
		}
		data.Recurring[index] = r
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.ExpenseRecordedEvent, event_bus.ExpenseRecorded{
		Category: r.Category, Amount: r.Amount, Date: r.Date, Recurring: true, Index: index,
	})
	return nil
}

func (s *ServiceImpl) RemoveRecurringExpense(ctx context.Context, index int) error {
	return s.mutate(ctx, func(data *store.Dataset) error {
		if index < 0 || index >= len(data.Recurring) {
			return indexError("recurring expense", index, len(data.Recurring))
		}
		data.Recurring = append(data.Recurring[:index], data.Recurring[index+1:]...)
		return nil
	})
}

func indexError(kind string, index, length int) error {
	log.Warnf("no %s at index %d (have %d)", kind, index, length)
	return fmt.Errorf("%w: no %s at index %d", ErrIndexOutOfRange, kind, index)
}

func (s *ServiceImpl) ListExpenses(_ context.Context) []expense.Record {
	data := s.snapshot()
	records := make([]expense.Record, 0, len(data.Expenses))
	for _, e := range data.Expenses {
		records = append(records, e.ToRecord())
	}
	return records
}

func (s *ServiceImpl) ListRecurringExpenses(_ context.Context) []expense.Record {
	data := s.snapshot()
	records := make([]expense.Record, 0, len(data.Recurring))
	for _, r := range data.Recurring {
		records = append(records, r.ToRecord())
	}
	return records
}

// ClearAll removes every direct and recurring expense. Budget tiers are kept.
func (s *ServiceImpl) ClearAll(ctx context.Context) error {
	var cleared event_bus.LedgerCleared
	err := s.mutate(ctx, func(data *store.Dataset) error {
		cleared = event_bus.LedgerCleared{RemovedExpenses: len(data.Expenses), RemovedRecurring: len(data.Recurring)}
		data.Expenses = []expense.Expense{}
		data.Recurring = []expense.RecurringExpense{}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.LedgerClearedEvent, cleared)
	return nil
}

func (s *ServiceImpl) BudgetStatus(_ context.Context) BudgetStatus {
	return BuildBudgetStatus(s.snapshot(), s.clock.Now())
}

// UpdateBudgetTier changes the thresholds of an existing category.
func (s *ServiceImpl) UpdateBudgetTier(ctx context.Context, category string, good, normal decimal.Decimal) error {
	if good.IsNegative() || normal.IsNegative() {
		return expense.ErrNegativeAmount
	}
	err := s.mutate(ctx, func(data *store.Dataset) error {
		if _, ok := data.Tiers[category]; !ok {
			log.Warnf("no budget tier for category %q", category)
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		data.Tiers[category] = budget.Tier{Good: good, Normal: normal}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, event_bus.BudgetTierUpdatedEvent, event_bus.BudgetTierUpdated{Category: category, Good: good, Normal: normal})
	return nil
}

func (s *ServiceImpl) ListBudgetTiers(_ context.Context) budget.Tiers {
	return s.snapshot().Tiers
}

func (s *ServiceImpl) ExpensesInRange(_ context.Context, start, end time.Time) ([]expense.Record, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			end.Format(expense.DateLayout), start.Format(expense.DateLayout))
	}
	expenses := FilterRange(s.snapshot().Expenses, start, end)
	records := make([]expense.Record, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, e.ToRecord())
	}
	return records, nil
}

func (s *ServiceImpl) WeeklyAlarm(_ context.Context) []string {
	data := s.snapshot()
	return BuildWeeklyAlarm(data.Expenses, data.Tiers, s.clock.Now())
}

func (s *ServiceImpl) MonthlyCalendar(_ context.Context, year int, month time.Month) (MonthCalendar, error) {
	return BuildMonthlyCalendar(s.snapshot().Expenses, year, month)
}

func (s *ServiceImpl) DailySummary(_ context.Context, numDays int) ([]DailyTotal, error) {
	return BuildDailySummary(s.snapshot().Expenses, utils.Today(s.clock), numDays)
}

func (s *ServiceImpl) ExpenseSummary(_ context.Context) map[string]decimal.Decimal {
	return SummarizeByCategory(s.snapshot().Expenses)
}

// SendWeeklyReminder renders the reminder and hands it to the notifier. Delivery
// problems are logged and reported as ErrDeliveryFailed.
func (s *ServiceImpl) SendWeeklyReminder(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: recipient is empty", expense.ErrValidation)
	}
	if s.notifier == nil {
		log.Error("weekly reminder requested but no notifier is configured")
		return ErrDeliveryFailed
	}
	data := s.snapshot()
	now := s.clock.Now()
	summary := reminder.Summary{
		CategoryTotals: SummarizeByCategory(data.Expenses),
		CurrentWeek:    BuildBudgetStatus(data, now).CurrentWeekExpenses,
		Alarms:         BuildWeeklyAlarm(data.Expenses, data.Tiers, now),
		Tiers:          data.Tiers,
		Recurring:      store.Dataset{Recurring: data.Recurring}.Records(),
	}
	if err := s.notifier.Send(ctx, email, reminder.Subject, reminder.RenderBody(summary)); err != nil {
		log.Errorf("Error sending weekly reminder to %s: %v", email, err)
		return ErrDeliveryFailed
	}
	s.publish(ctx, event_bus.WeeklyReminderSentEvent, event_bus.WeeklyReminderSent{Recipient: email, Alarms: len(summary.Alarms)})
	return nil
}

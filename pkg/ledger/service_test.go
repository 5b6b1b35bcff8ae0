package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/reminder"
	"github.com/budgetwatch/budgetwatch/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = &utils.MockClock{FixedNow: time.Date(2023, time.May, 17, 10, 0, 0, 0, time.UTC)}

type fixture struct {
	service  *ServiceImpl
	store    *store.StubStore
	notifier *reminder.StubNotifier
	bus      *event_bus.EventBus
}

func setup(t *testing.T) (fixture, context.Context) {
	t.Helper()
	st := store.NewStubStore()
	notifier := &reminder.StubNotifier{}
	bus := event_bus.NewEventBus()
	service := NewService(context.Background(), st, bus, notifier)
	service.clock = clock
	return fixture{service: service, store: st, notifier: notifier, bus: bus}, context.Background()
}

func TestNewService_SeedsEmptyStore(t *testing.T) {
	f, ctx := setup(t)

	assert.Empty(t, f.service.ListExpenses(ctx))
	assert.Empty(t, f.service.ListRecurringExpenses(ctx))
	assert.Equal(t, budget.DefaultTiers().Categories(), f.service.ListBudgetTiers(ctx).Categories())
	assert.Equal(t, 1, f.store.Saves())
}

func TestServiceImpl_AddExpense(t *testing.T) {
	f, ctx := setup(t)
	var recorded []event_bus.ExpenseRecorded
	event_bus.SubscribeTyped(f.bus, event_bus.ExpenseRecordedEvent, func(e event_bus.EventT[event_bus.ExpenseRecorded]) error {
		recorded = append(recorded, e.Data)
		return nil
	})

	// when
	err := f.service.AddExpense(ctx, "shopping", "12.50", "2023-05-02")
	require.NoError(t, err)
	err = f.service.AddExpense(ctx, "education", "3", "2023-05-03")
	require.NoError(t, err)

	// then
	records := f.service.ListExpenses(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "shopping", records[0].Category)
	assert.Equal(t, "12.5", records[0].Amount.String())
	assert.False(t, records[0].IsRecurring)
	assert.Len(t, f.store.Data().Expenses, 2)
	require.Len(t, recorded, 2)
	assert.Equal(t, 1, recorded[1].Index)
}

func TestServiceImpl_AddExpense_RejectsInvalidInput(t *testing.T) {
	f, ctx := setup(t)
	saves := f.store.Saves()

	tests := []struct {
		name   string
		amount string
		date   string
	}{
		{"non numeric amount", "twelve", "2023-05-02"},
		{"negative amount", "-1", "2023-05-02"},
		{"malformed date", "1", "2023/05/02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.AddExpense(ctx, "shopping", tt.amount, tt.date)
			assert.ErrorIs(t, err, expense.ErrValidation)
		})
	}
	assert.Empty(t, f.service.ListExpenses(ctx))
	assert.Equal(t, saves, f.store.Saves())
}

func TestServiceImpl_EditAndRemoveExpense(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "a", "1", "2023-05-01"))
	require.NoError(t, f.service.AddExpense(ctx, "b", "2", "2023-05-02"))
	require.NoError(t, f.service.AddExpense(ctx, "c", "3", "2023-05-03"))

	require.NoError(t, f.service.EditExpense(ctx, 1, "b2", "20", "2023-05-12"))
	require.NoError(t, f.service.RemoveExpense(ctx, 0))

	records := f.service.ListExpenses(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "b2", records[0].Category)
	assert.Equal(t, "2023-05-12", records[0].Date)
	assert.Equal(t, "c", records[1].Category)
	assert.Len(t, f.store.Data().Expenses, 2)
}

func TestServiceImpl_IndexOutOfRange(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "a", "1", "2023-05-01"))
	require.NoError(t, f.service.AddRecurringExpense(ctx, "rent", "100", "monthly", "2023-01-31"))
	saves := f.store.Saves()

	assert.ErrorIs(t, f.service.EditExpense(ctx, 1, "x", "1", "2023-05-01"), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.service.EditExpense(ctx, -1, "x", "1", "2023-05-01"), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.service.RemoveExpense(ctx, 5), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.service.EditRecurringExpense(ctx, 1, "x", "1", "weekly", "2023-05-01"), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.service.RemoveRecurringExpense(ctx, -3), ErrIndexOutOfRange)

	assert.Equal(t, saves, f.store.Saves())
	assert.Equal(t, "a", f.service.ListExpenses(ctx)[0].Category)
	assert.Equal(t, "rent", f.service.ListRecurringExpenses(ctx)[0].Category)
}

func TestServiceImpl_IndexOutOfRange_LeavesFilesUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	service := NewService(ctx, store.NewFileStore(dir), nil, nil)
	require.NoError(t, service.AddExpense(ctx, "shopping", "12.5", "2023-05-02"))
	require.NoError(t, service.AddRecurringExpense(ctx, "rent", "1000", "monthly", "2023-01-31"))
	before, err := os.ReadFile(filepath.Join(dir, store.ExpensesFile))
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dir, store.ExpensesFile))
	require.NoError(t, err)

	assert.ErrorIs(t, service.EditExpense(ctx, 3, "x", "1", "2023-05-01"), ErrIndexOutOfRange)
	assert.ErrorIs(t, service.RemoveExpense(ctx, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, service.RemoveRecurringExpense(ctx, 1), ErrIndexOutOfRange)

	after, err := os.ReadFile(filepath.Join(dir, store.ExpensesFile))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	infoAfter, err := os.Stat(filepath.Join(dir, store.ExpensesFile))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), infoAfter.ModTime())
}

func TestServiceImpl_RecurringExpenses(t *testing.T) {
	f, ctx := setup(t)

	require.NoError(t, f.service.AddRecurringExpense(ctx, "rent", "1000", "Monthly", "2023-01-31"))
	require.NoError(t, f.service.AddRecurringExpense(ctx, "gym", "25", "weekly", "2023-05-01"))
	assert.ErrorIs(t, f.service.AddRecurringExpense(ctx, "gym", "25", "daily", "2023-05-01"), expense.ErrInvalidFrequency)

	require.NoError(t, f.service.EditRecurringExpense(ctx, 1, "gym", "30", "weekly", "2023-05-02"))
	records := f.service.ListRecurringExpenses(ctx)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsRecurring)
	assert.Equal(t, expense.Monthly, records[0].Frequency)
	assert.Equal(t, "30", records[1].Amount.String())

	require.NoError(t, f.service.RemoveRecurringExpense(ctx, 0))
	assert.Len(t, f.service.ListRecurringExpenses(ctx), 1)
	assert.Empty(t, f.service.ListExpenses(ctx))
}

func TestServiceImpl_ClearAll(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "a", "1", "2023-05-01"))
	require.NoError(t, f.service.AddRecurringExpense(ctx, "rent", "100", "monthly", "2023-01-31"))
	require.NoError(t, f.service.UpdateBudgetTier(ctx, "shopping", decimal.NewFromInt(1), decimal.NewFromInt(2)))
	var cleared event_bus.LedgerCleared
	event_bus.SubscribeTyped(f.bus, event_bus.LedgerClearedEvent, func(e event_bus.EventT[event_bus.LedgerCleared]) error {
		cleared = e.Data
		return nil
	})

	require.NoError(t, f.service.ClearAll(ctx))

	assert.Empty(t, f.service.ListExpenses(ctx))
	assert.Empty(t, f.service.ListRecurringExpenses(ctx))
	reloaded := f.store.Load(ctx)
	assert.Empty(t, reloaded.Expenses)
	assert.Empty(t, reloaded.Recurring)
	assert.True(t, reloaded.Tiers["shopping"].Normal.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, event_bus.LedgerCleared{RemovedExpenses: 1, RemovedRecurring: 1}, cleared)
}

func TestServiceImpl_ClearAll_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	service := NewService(ctx, store.NewFileStore(dir), nil, nil)
	require.NoError(t, service.AddExpense(ctx, "a", "1", "2023-05-01"))
	require.NoError(t, service.ClearAll(ctx))

	restarted := NewService(ctx, store.NewFileStore(dir), nil, nil)

	assert.Empty(t, restarted.ListExpenses(ctx))
	assert.Empty(t, restarted.ListRecurringExpenses(ctx))
}

func TestServiceImpl_SaveFailureKeepsMemoryState(t *testing.T) {
	f, ctx := setup(t)
	f.store.SaveErr = errors.New("disk full")

	err := f.service.AddExpense(ctx, "a", "1", "2023-05-01")

	assert.NoError(t, err)
	assert.Len(t, f.service.ListExpenses(ctx), 1)
	assert.Empty(t, f.store.Data().Expenses)
}

func TestServiceImpl_UpdateBudgetTier(t *testing.T) {
	f, ctx := setup(t)
	var updated []event_bus.BudgetTierUpdated
	event_bus.SubscribeTyped(f.bus, event_bus.BudgetTierUpdatedEvent, func(e event_bus.EventT[event_bus.BudgetTierUpdated]) error {
		updated = append(updated, e.Data)
		return nil
	})

	err := f.service.UpdateBudgetTier(ctx, "education", decimal.NewFromInt(400), decimal.NewFromInt(600))
	require.NoError(t, err)

	tier := f.service.ListBudgetTiers(ctx)["education"]
	assert.Equal(t, "400", tier.Good.String())
	assert.Equal(t, "600", tier.Normal.String())
	assert.Equal(t, "600", f.store.Data().Tiers["education"].Normal.String())
	assert.Len(t, updated, 1)

	err = f.service.UpdateBudgetTier(ctx, "holidays", decimal.NewFromInt(1), decimal.NewFromInt(2))
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, exists := f.service.ListBudgetTiers(ctx)["holidays"]
	assert.False(t, exists)

	err = f.service.UpdateBudgetTier(ctx, "education", decimal.NewFromInt(-1), decimal.NewFromInt(2))
	assert.ErrorIs(t, err, expense.ErrValidation)
	assert.Len(t, updated, 1)
}

func TestServiceImpl_ListBudgetTiersIsACopy(t *testing.T) {
	f, ctx := setup(t)

	tiers := f.service.ListBudgetTiers(ctx)
	tiers["shopping"] = budget.Tier{}

	assert.False(t, f.service.ListBudgetTiers(ctx)["shopping"].Normal.IsZero())
}

func TestServiceImpl_BudgetStatusUsesClock(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "shopping", "20000", "2023-05-16"))
	require.NoError(t, f.service.AddExpense(ctx, "shopping", "5", "2023-04-16"))

	status := f.service.BudgetStatus(ctx)

	assert.Equal(t, "20000", status.Total["shopping"].Amount.String())
	assert.Equal(t, budget.StatusNormal, status.Total["shopping"].Status)
	assert.Equal(t, "20000", status.CurrentWeekExpenses.String())
	assert.Len(t, status.Total, len(budget.DefaultTiers()))
}

func TestServiceImpl_ExpensesInRange_DoesNotExpandRecurring(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "shopping", "10", "2023-05-10"))
	require.NoError(t, f.service.AddExpense(ctx, "shopping", "10", "2023-06-10"))
	require.NoError(t, f.service.AddRecurringExpense(ctx, "gym", "25", "weekly", "2023-05-01"))

	records, err := f.service.ExpensesInRange(ctx, day(2023, 5, 1), day(2023, 5, 31))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2023-05-10", records[0].Date)
	assert.False(t, records[0].IsRecurring)

	_, err = f.service.ExpensesInRange(ctx, day(2023, 5, 31), day(2023, 5, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestServiceImpl_Queries(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "education", "600", "2023-05-15"))
	require.NoError(t, f.service.AddExpense(ctx, "shopping", "1", "2023-05-17"))

	assert.Equal(t, []string{
		"Warning: education expenses ($600.00) have exceeded the normal limit ($500.00)",
	}, f.service.WeeklyAlarm(ctx))

	cal, err := f.service.MonthlyCalendar(ctx, 2023, time.May)
	require.NoError(t, err)
	assert.Len(t, cal.Days, 2)

	summary, err := f.service.DailySummary(ctx, 7)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, day(2023, 5, 17), summary[6].Date)
	assert.Equal(t, "1", summary[6].Total.String())
	assert.Equal(t, "600", summary[4].Total.String())

	totals := f.service.ExpenseSummary(ctx)
	assert.Equal(t, "600", totals["education"].String())
}

func TestServiceImpl_SendWeeklyReminder(t *testing.T) {
	f, ctx := setup(t)
	require.NoError(t, f.service.AddExpense(ctx, "education", "600", "2023-05-15"))
	require.NoError(t, f.service.AddRecurringExpense(ctx, "rent", "1000", "monthly", "2023-01-31"))

	err := f.service.SendWeeklyReminder(ctx, "me@example.com")

	require.NoError(t, err)
	messages := f.notifier.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "me@example.com", messages[0].Recipient)
	assert.Equal(t, reminder.Subject, messages[0].Subject)
	assert.Contains(t, messages[0].Body, "education: $600.00")
	assert.Contains(t, messages[0].Body, "Warning: education expenses")
	assert.Contains(t, messages[0].Body, "rent: $1000.00 monthly since 2023-01-31")
}

func TestServiceImpl_SendWeeklyReminder_Failures(t *testing.T) {
	f, ctx := setup(t)

	assert.ErrorIs(t, f.service.SendWeeklyReminder(ctx, " "), expense.ErrValidation)

	f.notifier.Err = errors.New("connection refused")
	assert.ErrorIs(t, f.service.SendWeeklyReminder(ctx, "me@example.com"), ErrDeliveryFailed)

	f.service.notifier = nil
	assert.ErrorIs(t, f.service.SendWeeklyReminder(ctx, "me@example.com"), ErrDeliveryFailed)
}

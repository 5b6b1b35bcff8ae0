package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ExpenseRecordedEvent    EventType = "expense.recorded"
	LedgerClearedEvent      EventType = "ledger.cleared"
	BudgetTierUpdatedEvent  EventType = "budget.tier_updated"
	WeeklyReminderSentEvent EventType = "reminder.sent"
)

// ExpenseRecorded is published after a direct or recurring expense was added or edited.
type ExpenseRecorded struct {
	Category  string
	Amount    decimal.Decimal
	Date      time.Time
	Recurring bool
	// Index is the position of the entry in its collection.
	Index int
}

type LedgerCleared struct {
	RemovedExpenses  int
	RemovedRecurring int
}

type BudgetTierUpdated struct {
	Category string
	Good     decimal.Decimal
	Normal   decimal.Decimal
}

type WeeklyReminderSent struct {
	Recipient string
	Alarms    int
}

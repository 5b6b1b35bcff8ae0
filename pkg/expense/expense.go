package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the lexical form of every stored date.
const DateLayout = "2006-01-02"

type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidAmount    = fmt.Errorf("%w: amount is not a number", ErrValidation)
	ErrNegativeAmount   = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	ErrInvalidFrequency = fmt.Errorf("%w: frequency must be weekly or monthly", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: category is empty", ErrValidation)
)

// Expense is a single dated ledger entry.
type Expense struct {
	Category string
	Amount   decimal.Decimal
	Date     time.Time
}

// RecurringExpense generates an occurrence of Amount every Frequency starting at Date.
type RecurringExpense struct {
	Category  string
	Amount    decimal.Decimal
	Date      time.Time
	Frequency Frequency
}

// Record is the serialization shape shared by both variants. IsRecurring is the
// discriminant; Frequency is only set for recurring records.
type Record struct {
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	IsRecurring bool            `json:"isRecurring"`
	Frequency   Frequency       `json:"frequency,omitempty"`
}

// Entry is implemented by every expense variant.
type Entry interface {
	ToRecord() Record
}

func (e Expense) ToRecord() Record {
	return Record{
		Category: e.Category,
		Date:     e.Date.Format(DateLayout),
		Amount:   e.Amount,
	}
}

func (r RecurringExpense) ToRecord() Record {
	return Record{
		Category:    r.Category,
		Date:        r.Date.Format(DateLayout),
		Amount:      r.Amount,
		IsRecurring: true,
		Frequency:   r.Frequency,
	}
}

// FromRecord builds the variant selected by rec.IsRecurring. The returned Entry is
// either an Expense or a RecurringExpense.
func FromRecord(rec Record) (Entry, error) {
	date, err := ParseDate(rec.Date)
	if err != nil {
		return nil, err
	}
	if err := validate(rec.Category, rec.Amount); err != nil {
		return nil, err
	}
	if !rec.IsRecurring {
		return Expense{Category: rec.Category, Amount: rec.Amount, Date: date}, nil
	}
	if !rec.Frequency.IsValid() {
		return nil, ErrInvalidFrequency
	}
	return RecurringExpense{Category: rec.Category, Amount: rec.Amount, Date: date, Frequency: rec.Frequency}, nil
}

// NewExpense validates raw user input and builds an Expense.
func NewExpense(category, amount, date string) (Expense, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return Expense{}, err
	}
	day, err := ParseDate(date)
	if err != nil {
		return Expense{}, err
	}
	category = strings.TrimSpace(category)
	if err := validate(category, value); err != nil {
		return Expense{}, err
	}
	return Expense{Category: category, Amount: value, Date: day}, nil
}

// NewRecurringExpense validates raw user input and builds a RecurringExpense.
func NewRecurringExpense(category, amount, frequency, date string) (RecurringExpense, error) {
	e, err := NewExpense(category, amount, date)
	if err != nil {
		return RecurringExpense{}, err
	}
	freq := Frequency(strings.ToLower(strings.TrimSpace(frequency)))
	if !freq.IsValid() {
		return RecurringExpense{}, ErrInvalidFrequency
	}
	return RecurringExpense{Category: e.Category, Amount: e.Amount, Date: e.Date, Frequency: freq}, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case Weekly, Monthly:
		return true
	default:
		return false
	}
}

// ParseAmount parses a decimal amount. Negative values are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return value, nil
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Day truncates t to its calendar date at UTC midnight, keeping t's wall-clock date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validate(category string, amount decimal.Decimal) error {
	if category == "" {
		return ErrEmptyCategory
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Expenses
	r.HandleFunc("/api/expenses", deps.LedgerHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/expenses", deps.LedgerHandler.AddExpense).Methods("POST")
	r.HandleFunc("/api/expenses", deps.LedgerHandler.ClearExpenses).Methods("DELETE")
	r.HandleFunc("/api/expenses/range", deps.LedgerHandler.ExpensesInRange).Methods("GET")
	r.HandleFunc("/api/expenses/{index}", deps.LedgerHandler.EditExpense).Methods("PUT")
	r.HandleFunc("/api/expenses/{index}", deps.LedgerHandler.RemoveExpense).Methods("DELETE")

	// Recurring expenses
	r.HandleFunc("/api/recurring", deps.LedgerHandler.ListRecurringExpenses).Methods("GET")
	r.HandleFunc("/api/recurring", deps.LedgerHandler.AddRecurringExpense).Methods("POST")
	r.HandleFunc("/api/recurring/{index}", deps.LedgerHandler.EditRecurringExpense).Methods("PUT")
	r.HandleFunc("/api/recurring/{index}", deps.LedgerHandler.RemoveRecurringExpense).Methods("DELETE")

	// Budgets
	r.HandleFunc("/api/budgets", deps.LedgerHandler.ListBudgetTiers).Methods("GET")
	r.HandleFunc("/api/budgets/{category}", deps.LedgerHandler.UpdateBudgetTier).Methods("PUT")
	r.HandleFunc("/api/budget_status", deps.LedgerHandler.BudgetStatus).Methods("GET")

	// Queries
	r.HandleFunc("/api/alarms", deps.LedgerHandler.WeeklyAlarm).Methods("GET")
	r.HandleFunc("/api/calendar/{year}/{month}", deps.LedgerHandler.MonthlyCalendar).Methods("GET")
	r.HandleFunc("/api/expense_summary/{days}", deps.LedgerHandler.DailySummary).Methods("GET")

	// Reminder
	r.HandleFunc("/api/reminder", deps.LedgerHandler.SendWeeklyReminder).Methods("POST")

	// Reports
	r.HandleFunc("/api/reports/budget_status.csv", deps.ReportHandler.BudgetStatusCsv).Methods("GET")
	r.HandleFunc("/api/reports/expense_chart.xlsx", deps.ReportHandler.ExpenseChart).Methods("GET")
}

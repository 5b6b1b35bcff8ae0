package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/budgetwatch/budgetwatch/pkg/budget"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ExpenseDTO.Index is the position addressed by edit and remove. It is left out where
// the entry is not part of a full collection listing.
type ExpenseDTO struct {
	Index       *int        `json:"index,omitempty"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	IsRecurring bool        `json:"isRecurring"`
	Frequency   string      `json:"frequency,omitempty"`
}

type BudgetTierDTO struct {
	Good   json.Number `json:"good"`
	Normal json.Number `json:"normal"`
}

type CategoryTotalDTO struct {
	Amount json.Number `json:"amount"`
	Status string      `json:"status"`
}

type BudgetStatusDTO struct {
	Weekly              map[string]map[string]json.Number `json:"weekly"`
	Total               map[string]CategoryTotalDTO       `json:"total"`
	CurrentWeekExpenses json.Number                       `json:"current_week_expenses"`
}

type MonthCalendarDTO struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Days  map[int][]ExpenseDTO `json:"days"`
	Weeks [][7]int             `json:"weeks"`
}

type DailyTotalDTO struct {
	Date  string      `json:"date"`
	Total json.Number `json:"total"`
}

type ReminderRequestDTO struct {
	Email string `json:"email"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func RecordToDTO(index int, rec expense.Record) ExpenseDTO {
	dto := UnindexedRecordToDTO(rec)
	dto.Index = &index
	return dto
}

func UnindexedRecordToDTO(rec expense.Record) ExpenseDTO {
	return ExpenseDTO{
		Category:    rec.Category,
		Amount:      number(rec.Amount),
		Date:        rec.Date,
		IsRecurring: rec.IsRecurring,
		Frequency:   string(rec.Frequency),
	}
}

func RecordsToDTO(records []expense.Record) []ExpenseDTO {
	dtos := make([]ExpenseDTO, 0, len(records))
	for i, rec := range records {
		dtos = append(dtos, RecordToDTO(i, rec))
	}
	return dtos
}

func UnindexedRecordsToDTO(records []expense.Record) []ExpenseDTO {
	dtos := make([]ExpenseDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, UnindexedRecordToDTO(rec))
	}
	return dtos
}

func TiersToDTO(tiers budget.Tiers) map[string]BudgetTierDTO {
	dtos := make(map[string]BudgetTierDTO, len(tiers))
	for category, tier := range tiers {
		dtos[category] = BudgetTierDTO{Good: number(tier.Good), Normal: number(tier.Normal)}
	}
	return dtos
}

func BudgetStatusToDTO(status BudgetStatus) BudgetStatusDTO {
	dto := BudgetStatusDTO{
		Weekly:              make(map[string]map[string]json.Number, len(status.Weekly)),
		Total:               make(map[string]CategoryTotalDTO, len(status.Total)),
		CurrentWeekExpenses: number(status.CurrentWeekExpenses),
	}
	for key, week := range status.Weekly {
		categories := make(map[string]json.Number, len(week))
		for category, amount := range week {
			categories[category] = number(amount)
		}
		dto.Weekly[key] = categories
	}
	for category, total := range status.Total {
		dto.Total[category] = CategoryTotalDTO{Amount: number(total.Amount), Status: string(total.Status)}
	}
	return dto
}

func MonthCalendarToDTO(cal MonthCalendar) MonthCalendarDTO {
	dto := MonthCalendarDTO{
		Year:  cal.Year,
		Month: int(cal.Month),
		Days:  make(map[int][]ExpenseDTO, len(cal.Days)),
		Weeks: cal.Weeks,
	}
	for day, entries := range cal.Days {
		dtos := make([]ExpenseDTO, 0, len(entries))
		for _, entry := range entries {
			dtos = append(dtos, RecordToDTO(entry.Index, entry.Expense.ToRecord()))
		}
		dto.Days[day] = dtos
	}
	return dto
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, expense.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrCategoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrDeliveryFailed):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("could not encode response: %v", err)
	}
}

func indexParam(r *http.Request) (int, error) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return 0, errors.New("index must be an integer")
	}
	return index, nil
}

// ListExpenses godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Success 200 {array} ExpenseDTO
// @Router /api/expenses [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing expenses")
	writeJSON(w, http.StatusOK, RecordsToDTO(h.service.ListExpenses(r.Context())))
}

// AddExpense godoc
// @Summary Add an expense
// @Tags Expenses
// @Accept json
// @Param expense body ExpenseDTO true "Expense"
// @Success 201
// @Failure 400 {string} string "Bad Request"
// @Router /api/expenses [post]
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding expense")
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.AddExpense(r.Context(), dto.Category, string(dto.Amount), dto.Date); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ClearExpenses godoc
// @Summary Remove every expense and recurring expense
// @Tags Expenses
// @Success 204
// @Router /api/expenses [delete]
func (h *Handler) ClearExpenses(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing all expenses")
	if err := h.service.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditExpense godoc
// @Summary Replace the expense at index
// @Tags Expenses
// @Accept json
// @Param index path int true "Expense index"
// @Param expense body ExpenseDTO true "Expense"
// @Success 204
// @Failure 400 {string} string "Bad Request"
// @Failure 404 {string} string "Not Found"
// @Router /api/expenses/{index} [put]
func (h *Handler) EditExpense(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Editing expense %d", index)
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.EditExpense(r.Context(), index, dto.Category, string(dto.Amount), dto.Date); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveExpense godoc
// @Summary Remove the expense at index
// @Tags Expenses
// @Param index path int true "Expense index"
// @Success 204
// @Failure 404 {string} string "Not Found"
// @Router /api/expenses/{index} [delete]
func (h *Handler) RemoveExpense(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Removing expense %d", index)
	if err := h.service.RemoveExpense(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRecurringExpenses(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing recurring expenses")
	writeJSON(w, http.StatusOK, RecordsToDTO(h.service.ListRecurringExpenses(r.Context())))
}

func (h *Handler) AddRecurringExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding recurring expense")
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.AddRecurringExpense(r.Context(), dto.Category, string(dto.Amount), dto.Frequency, dto.Date); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) EditRecurringExpense(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Editing recurring expense %d", index)
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.EditRecurringExpense(r.Context(), index, dto.Category, string(dto.Amount), dto.Frequency, dto.Date); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveRecurringExpense(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Removing recurring expense %d", index)
	if err := h.service.RemoveRecurringExpense(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpensesInRange godoc
// @Summary List direct expenses dated within [start, end]
// @Tags Expenses
// @Produce json
// @Param start query string true "YYYY-MM-DD"
// @Param end query string true "YYYY-MM-DD"
// @Success 200 {array} ExpenseDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/expenses/range [get]
func (h *Handler) ExpensesInRange(w http.ResponseWriter, r *http.Request) {
	start, err := expense.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "start: "+err.Error(), http.StatusBadRequest)
		return
	}
	end, err := expense.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, "end: "+err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.service.ExpensesInRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UnindexedRecordsToDTO(records))
}

func (h *Handler) ListBudgetTiers(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing budget tiers")
	writeJSON(w, http.StatusOK, TiersToDTO(h.service.ListBudgetTiers(r.Context())))
}

// UpdateBudgetTier godoc
// @Summary Update the tier of an existing category
// @Tags Budgets
// @Accept json
// @Param category path string true "Category"
// @Param tier body BudgetTierDTO true "Tier"
// @Success 204
// @Failure 400 {string} string "Bad Request"
// @Failure 404 {string} string "Not Found"
// @Router /api/budgets/{category} [put]
func (h *Handler) UpdateBudgetTier(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	log.Debugf("Updating budget tier %s", category)
	var dto BudgetTierDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	good, err := expense.ParseAmount(string(dto.Good))
	if err != nil {
		writeError(w, err)
		return
	}
	normal, err := expense.ParseAmount(string(dto.Normal))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.UpdateBudgetTier(r.Context(), category, good, normal); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BudgetStatus godoc
// @Summary Current month spending per week and category
// @Tags Budgets
// @Produce json
// @Success 200 {object} BudgetStatusDTO
// @Router /api/budget_status [get]
func (h *Handler) BudgetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BudgetStatusToDTO(h.service.BudgetStatus(r.Context())))
}

func (h *Handler) WeeklyAlarm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.WeeklyAlarm(r.Context()))
}

// MonthlyCalendar godoc
// @Summary Direct expenses of a month laid out on a Sunday-first grid
// @Tags Calendar
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} MonthCalendarDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/calendar/{year}/{month} [get]
func (h *Handler) MonthlyCalendar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "year must be an integer", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		http.Error(w, "month must be an integer", http.StatusBadRequest)
		return
	}
	cal, err := h.service.MonthlyCalendar(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MonthCalendarToDTO(cal))
}

func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(mux.Vars(r)["days"])
	if err != nil {
		http.Error(w, "days must be an integer", http.StatusBadRequest)
		return
	}
	summary, err := h.service.DailySummary(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]DailyTotalDTO, 0, len(summary))
	for _, day := range summary {
		dtos = append(dtos, DailyTotalDTO{Date: day.Date.Format(expense.DateLayout), Total: number(day.Total)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SendWeeklyReminder godoc
// @Summary Email the weekly summary
// @Tags Reminder
// @Accept json
// @Param request body ReminderRequestDTO true "Recipient"
// @Success 202
// @Failure 400 {string} string "Bad Request"
// @Failure 502 {string} string "Delivery failed"
// @Router /api/reminder [post]
func (h *Handler) SendWeeklyReminder(w http.ResponseWriter, r *http.Request) {
	var dto ReminderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SendWeeklyReminder(r.Context(), dto.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

package report

import (
	"bytes"
	"net/http"

	"github.com/budgetwatch/budgetwatch/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service       ledger.Service
	csvRenderer   BudgetStatusRenderer
	chartRenderer ChartRenderer
}

func NewHandler(service ledger.Service, csvRenderer BudgetStatusRenderer, chartRenderer ChartRenderer) *Handler {
	return &Handler{service, csvRenderer, chartRenderer}
}

// BudgetStatusCsv godoc
// @Summary Current month budget status as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {string} string "CSV"
// @Router /api/reports/budget_status.csv [get]
func (h *Handler) BudgetStatusCsv(w http.ResponseWriter, r *http.Request) {
	log.Debug("Rendering budget status CSV")
	status := h.service.BudgetStatus(r.Context())
	csv, err := h.csvRenderer.RenderBudgetStatus(status, h.service.ListBudgetTiers(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="budget_status.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("could not write csv response: %v", err)
	}
}

// ExpenseChart godoc
// @Summary Workbook with a pie chart of all-time spending per category
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "expense_chart.xlsx"
// @Router /api/reports/expense_chart.xlsx [get]
func (h *Handler) ExpenseChart(w http.ResponseWriter, r *http.Request) {
	log.Debug("Rendering expense chart")
	var buf bytes.Buffer
	if err := h.chartRenderer.RenderExpenseChart(h.service.ExpenseSummary(r.Context()), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expense_chart.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Errorf("could not write chart response: %v", err)
	}
}

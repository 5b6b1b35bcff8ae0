package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*mux.Router, fixture) {
	f, _ := setup(t)
	handler := NewHandler(f.service)
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/expenses", handler.ListExpenses).Methods("GET")
	api.HandleFunc("/expenses", handler.AddExpense).Methods("POST")
	api.HandleFunc("/expenses", handler.ClearExpenses).Methods("DELETE")
	api.HandleFunc("/expenses/range", handler.ExpensesInRange).Methods("GET")
	api.HandleFunc("/expenses/{index}", handler.EditExpense).Methods("PUT")
	api.HandleFunc("/expenses/{index}", handler.RemoveExpense).Methods("DELETE")
	api.HandleFunc("/recurring", handler.ListRecurringExpenses).Methods("GET")
	api.HandleFunc("/recurring", handler.AddRecurringExpense).Methods("POST")
	api.HandleFunc("/budgets", handler.ListBudgetTiers).Methods("GET")
	api.HandleFunc("/budgets/{category}", handler.UpdateBudgetTier).Methods("PUT")
	api.HandleFunc("/budget_status", handler.BudgetStatus).Methods("GET")
	api.HandleFunc("/alarms", handler.WeeklyAlarm).Methods("GET")
	api.HandleFunc("/calendar/{year}/{month}", handler.MonthlyCalendar).Methods("GET")
	api.HandleFunc("/expense_summary/{days}", handler.DailySummary).Methods("GET")
	api.HandleFunc("/reminder", handler.SendWeeklyReminder).Methods("POST")
	return router, f
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_AddAndListExpenses(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(router, http.MethodPost, "/api/expenses", `{"category":"shopping","amount":12.5,"date":"2023-05-02"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = do(router, http.MethodPost, "/api/expenses", `{"category":"education","amount":"3","date":"2023-05-03"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(router, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `[
		{"index":0,"category":"shopping","amount":12.5,"date":"2023-05-02","isRecurring":false},
		{"index":1,"category":"education","amount":3,"date":"2023-05-03","isRecurring":false}
	]`, w.Body.String())
}

func TestHandler_StatusMapping(t *testing.T) {
	router, f := setupHandlerTest(t)
	f.notifier.Err = errors.New("smtp down")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad amount", http.MethodPost, "/api/expenses", `{"category":"shopping","amount":"abc","date":"2023-05-02"}`, http.StatusBadRequest},
		{"missing amount", http.MethodPost, "/api/expenses", `{"category":"shopping","date":"2023-05-02"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/expenses", `{"category":"shopping","amount":1,"date":"02.05.2023"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/expenses", `{`, http.StatusBadRequest},
		{"edit missing index", http.MethodPut, "/api/expenses/4", `{"category":"shopping","amount":1,"date":"2023-05-02"}`, http.StatusNotFound},
		{"remove missing index", http.MethodDelete, "/api/expenses/0", "", http.StatusNotFound},
		{"non numeric index", http.MethodDelete, "/api/expenses/first", "", http.StatusBadRequest},
		{"bad frequency", http.MethodPost, "/api/recurring", `{"category":"rent","amount":1,"frequency":"yearly","date":"2023-05-02"}`, http.StatusBadRequest},
		{"unknown budget category", http.MethodPut, "/api/budgets/holidays", `{"good":1,"normal":2}`, http.StatusNotFound},
		{"negative tier", http.MethodPut, "/api/budgets/shopping", `{"good":-1,"normal":2}`, http.StatusBadRequest},
		{"invalid month", http.MethodGet, "/api/calendar/2023/13", "", http.StatusBadRequest},
		{"zero days", http.MethodGet, "/api/expense_summary/0", "", http.StatusBadRequest},
		{"range without end", http.MethodGet, "/api/expenses/range?start=2023-05-01", "", http.StatusBadRequest},
		{"reversed range", http.MethodGet, "/api/expenses/range?start=2023-05-31&end=2023-05-01", "", http.StatusBadRequest},
		{"delivery failure", http.MethodPost, "/api/reminder", `{"email":"me@example.com"}`, http.StatusBadGateway},
		{"missing recipient", http.MethodPost, "/api/reminder", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, f.service.ListExpenses(t.Context()))
}

func TestHandler_EditRemoveAndClear(t *testing.T) {
	router, f := setupHandlerTest(t)
	do(router, http.MethodPost, "/api/expenses", `{"category":"a","amount":1,"date":"2023-05-01"}`)
	do(router, http.MethodPost, "/api/expenses", `{"category":"b","amount":2,"date":"2023-05-02"}`)
	do(router, http.MethodPost, "/api/recurring", `{"category":"rent","amount":100,"frequency":"monthly","date":"2023-01-31"}`)

	w := do(router, http.MethodPut, "/api/expenses/1", `{"category":"b2","amount":20,"date":"2023-05-12"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodDelete, "/api/expenses/0", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	records := f.service.ListExpenses(t.Context())
	require.Len(t, records, 1)
	assert.Equal(t, "b2", records[0].Category)

	w = do(router, http.MethodGet, "/api/recurring", "")
	assert.JSONEq(t, `[{"index":0,"category":"rent","amount":100,"date":"2023-01-31","isRecurring":true,"frequency":"monthly"}]`, w.Body.String())

	w = do(router, http.MethodDelete, "/api/expenses", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.service.ListExpenses(t.Context()))
	assert.Empty(t, f.service.ListRecurringExpenses(t.Context()))
}

func TestHandler_BudgetStatus(t *testing.T) {
	router, _ := setupHandlerTest(t)
	do(router, http.MethodPost, "/api/expenses", `{"category":"education","amount":100,"date":"2023-05-16"}`)
	w := do(router, http.MethodPut, "/api/budgets/education", `{"good":10,"normal":20}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/budget_status", "")

	require.Equal(t, http.StatusOK, w.Code)
	var dto BudgetStatusDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, json.Number("100"), dto.CurrentWeekExpenses)
	assert.Equal(t, CategoryTotalDTO{Amount: "100", Status: "Over Budget"}, dto.Total["education"])
	assert.Equal(t, CategoryTotalDTO{Amount: "0", Status: "Good"}, dto.Total["shopping"])
	assert.Equal(t, json.Number("100"), dto.Weekly["2023-W19 (2023-05-14)"]["education"])
	assert.Equal(t, json.Number("0"), dto.Weekly["2023-W19 (2023-05-14)"]["shopping"])
}

func TestHandler_Queries(t *testing.T) {
	router, _ := setupHandlerTest(t)
	do(router, http.MethodPost, "/api/expenses", `{"category":"education","amount":600,"date":"2023-05-15"}`)
	do(router, http.MethodPost, "/api/expenses", `{"category":"shopping","amount":4,"date":"2023-05-31"}`)

	w := do(router, http.MethodGet, "/api/alarms", "")
	assert.JSONEq(t, `["Warning: education expenses ($600.00) have exceeded the normal limit ($500.00)"]`, w.Body.String())

	w = do(router, http.MethodGet, "/api/expenses/range?start=2023-05-01&end=2023-05-20", "")
	assert.JSONEq(t, `[{"category":"education","amount":600,"date":"2023-05-15","isRecurring":false}]`, w.Body.String())

	w = do(router, http.MethodGet, "/api/calendar/2023/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cal MonthCalendarDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cal))
	assert.Equal(t, 5, cal.Month)
	assert.Len(t, cal.Days, 2)
	assert.Equal(t, "shopping", cal.Days[31][0].Category)
	require.NotNil(t, cal.Days[31][0].Index)
	assert.Equal(t, 1, *cal.Days[31][0].Index)
	assert.Equal(t, [7]int{28, 29, 30, 31, 0, 0, 0}, cal.Weeks[4])

	w = do(router, http.MethodGet, "/api/expense_summary/3", "")
	assert.JSONEq(t, `[
		{"date":"2023-05-15","total":600},
		{"date":"2023-05-16","total":0},
		{"date":"2023-05-17","total":0}
	]`, w.Body.String())
}

func TestHandler_SendWeeklyReminder(t *testing.T) {
	router, f := setupHandlerTest(t)

	w := do(router, http.MethodPost, "/api/reminder", `{"email":"me@example.com"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, f.notifier.Messages(), 1)
}

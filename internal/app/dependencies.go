package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/budgetwatch/budgetwatch/internal/database"
	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/pkg/ledger"
	"github.com/budgetwatch/budgetwatch/pkg/reminder"
	"github.com/budgetwatch/budgetwatch/pkg/report"
	"github.com/budgetwatch/budgetwatch/pkg/store"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	DB    *sql.DB
	Store store.Store

	EventBus *event_bus.EventBus
	Notifier reminder.Notifier

	LedgerService *ledger.ServiceImpl
	LedgerHandler *ledger.Handler

	CsvRenderer   *report.CsvRendererImpl
	ChartRenderer *report.XlsxChartRendererImpl
	ReportHandler *report.Handler

	Scheduler *reminder.Scheduler
}

// OpenStore builds the Store selected by cfg.Storage.Backend. The returned *sql.DB is
// nil for the file backends.
func OpenStore(cfg config.Application) (store.Store, *sql.DB, error) {
	switch cfg.Storage.Backend {
	case "", "json":
		return store.NewFileStore(cfg.Storage.Dir), nil, nil
	case "xlsx":
		return store.NewWorkbookStore(filepath.Join(cfg.Storage.Dir, cfg.Storage.Workbook)), nil, nil
	case "sqlite":
		db, err := database.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLStore(db, database.SQLite), db, nil
	case "postgres":
		db, err := database.OpenPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLStore(db, database.Postgres), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, st store.Store, notifier reminder.Notifier, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{Store: st, Notifier: notifier}

	deps.EventBus = event_bus.NewEventBus()

	deps.LedgerService = ledger.NewService(ctx, deps.Store, deps.EventBus, deps.Notifier)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService)

	deps.CsvRenderer = report.NewCsvRenderer()
	deps.ChartRenderer = report.NewXlsxChartRenderer()
	deps.ReportHandler = report.NewHandler(deps.LedgerService, deps.CsvRenderer, deps.ChartRenderer)

	subscribeLedgerLogger(deps.EventBus, deps.LedgerService)

	if cfg.Reminder.Enabled {
		scheduler, err := reminder.NewScheduler(cfg.Reminder.Schedule, cfg.Reminder.Recipient, deps.LedgerService)
		if err != nil {
			return nil, err
		}
		deps.Scheduler = scheduler
	}

	return deps, nil
}

// subscribeLedgerLogger logs ledger changes and warns about every category above its
// weekly limit whenever an expense is recorded.
func subscribeLedgerLogger(bus *event_bus.EventBus, service ledger.Service) {
	event_bus.SubscribeTyped(bus, event_bus.ExpenseRecordedEvent, func(e event_bus.EventT[event_bus.ExpenseRecorded]) error {
		for _, alarm := range service.WeeklyAlarm(e.Context()) {
			log.WithField("category", e.Data.Category).Warn(alarm)
		}
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.LedgerClearedEvent, func(e event_bus.EventT[event_bus.LedgerCleared]) error {
		log.Infof("Ledger cleared: removed %d expenses and %d recurring expenses",
			e.Data.RemovedExpenses, e.Data.RemovedRecurring)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.BudgetTierUpdatedEvent, func(e event_bus.EventT[event_bus.BudgetTierUpdated]) error {
		log.Infof("Budget tier %s updated: good %s, normal %s",
			e.Data.Category, e.Data.Good.StringFixed(2), e.Data.Normal.StringFixed(2))
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.WeeklyReminderSentEvent, func(e event_bus.EventT[event_bus.WeeklyReminderSent]) error {
		log.Infof("Weekly reminder sent to %s with %d alarms", e.Data.Recipient, e.Data.Alarms)
		return nil
	})
}

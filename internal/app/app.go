package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/budgetwatch/budgetwatch/pkg/reminder"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	st, db, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	// Build dependencies (services, handlers...)
	deps, err := BuildDependencies(ctx, st, reminder.NewEmailNotifier(cfg.SMTP), cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	deps.DB = db

	r := mux.NewRouter()

	// Middleware chain
	SetupMiddleware(r)

	// Routes
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, router: r, srv: srv}, nil
}

// Run starts the HTTP server and the reminder scheduler, and blocks until ctx is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if a.deps.Scheduler != nil {
		a.deps.Scheduler.Start()
		log.Infof("Weekly reminder scheduled with %q", a.cfg.Reminder.Schedule)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s using %s storage", a.srv.Addr, a.cfg.Storage.Backend)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	a.shutdown()
	log.Info("Server stopped gracefully")
	return nil
}

func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.deps.Scheduler != nil {
		a.deps.Scheduler.Stop(shutdownCtx)
	}
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
	closeDB(a.deps.DB)
}

func closeDB(db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Errorf("failed to close database: %v", err)
	}
}

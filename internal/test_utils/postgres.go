package test_utils

import (
	"context"
	"database/sql"
	"testing"

	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/budgetwatch/budgetwatch/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage = "postgres:18.1-alpine"
	postgresDB    = "budgetwatch"
	postgresUser  = "test_budgetwatch"
	postgresPass  = "test_budgetwatch"
)

// SetupPostgresDB starts a disposable Postgres container, applies all migrations and
// returns an open connection. The test is skipped when no container runtime is available.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	ctx := context.Background()

	container, err := startPostgres(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Errorf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to resolve container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("Failed to resolve container port: %v", err)
	}
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	db, err := database.OpenPostgres(config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   postgresUser,
		Pass:   postgresPass,
		Name:   postgresDB,
		Schema: "public",
	})
	if err != nil {
		t.Fatalf("Failed to open postgres database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, error) {
	return postgres.Run(
		ctx, postgresImage,
		postgres.WithDatabase(postgresDB),
		postgres.WithUsername(postgresUser),
		postgres.WithPassword(postgresPass),
		postgres.BasicWaitStrategies(),
	)
}

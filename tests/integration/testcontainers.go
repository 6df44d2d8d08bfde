// Package integration holds end-to-end tests that run against a real
// PostgreSQL instance via testcontainers. Docker must be running.
//
// Run with: go test ./tests/integration/
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
)

// TestContainer holds the PostgreSQL container and connection details
type TestContainer struct {
	Container testcontainers.Container
	Database  *db.DB
	Config    *db.Config
}

// SetupTestContainer creates and starts a PostgreSQL container, connects
// to it and migrates the schema.
func SetupTestContainer(t *testing.T) *TestContainer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("portfolio_test"),
		postgres.WithUsername("portfolio_user"),
		postgres.WithPassword("portfolio_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	config := &db.Config{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Port(),
		User:     "portfolio_user",
		Password: "portfolio_password",
		Name:     "portfolio_test",
		SSLMode:  "disable",
	}

	database, err := db.Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestContainer{
		Container: pgContainer,
		Database:  database,
		Config:    config,
	}
}

// Cleanup closes the connection and terminates the container.
func (tc *TestContainer) Cleanup(t *testing.T) {
	t.Helper()

	if tc.Database != nil {
		tc.Database.Close()
	}
	if tc.Container != nil {
		if err := tc.Container.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}
}

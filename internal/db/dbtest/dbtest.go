// Package dbtest provisions a migrated PostgreSQL database for integration
// tests. Tests are skipped unless FLEETCORE_TEST_DB_DSN points at a disposable
// database; the schema is dropped and re-applied per test for isolation.
package dbtest

import (
	"database/sql"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// EnvDSN names the environment variable integration tests read their
// database from.
const EnvDSN = "FLEETCORE_TEST_DB_DSN"

// New returns a freshly migrated database handle, skipping the test when no
// test database is configured. migrationsDir is relative to the calling
// package.
func New(t *testing.T, migrationsDir string) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set; skipping integration test", EnvDSN)
	}

	handle, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	driver, err := migratepg.WithInstance(handle, &migratepg.Config{})
	if err != nil {
		t.Fatalf("preparing migration driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		t.Fatalf("opening migrations: %v", err)
	}

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("resetting schema: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("applying migrations: %v", err)
	}
	return handle
}

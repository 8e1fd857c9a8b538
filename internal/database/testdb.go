package database

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// The pool is pinned to one connection so the in-memory database outlives every
// query and concurrent transactions queue on the connection instead of failing.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         NewGormLogger(zap.NewNop(), 0),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// PostgresTestURLEnv names the connection string used by NewPostgresTestDB.
const PostgresTestURLEnv = "STOCKDESK_TEST_DATABASE_URL"

// NewPostgresTestDB migrates a throwaway schema on the postgres server named by
// STOCKDESK_TEST_DATABASE_URL and skips the test when the variable is unset. Unlike
// NewTestDB the pool is not pinned, so concurrent transactions really contend on row locks.
func NewPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresTestURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresTestURLEnv)
	}

	admin, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("opening postgres: %v", err)
	}
	schema := "stockdesk_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		admin.Close()
		t.Fatalf("creating test schema: %v", err)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		admin.Close()
		t.Fatalf("parsing %s: %v", PostgresTestURLEnv, err)
	}
	cfg.RuntimeParams["search_path"] = schema
	sqlDB := stdlib.OpenDB(*cfg)

	t.Cleanup(func() {
		sqlDB.Close()
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Logf("dropping test schema %s: %v", schema, err)
		}
		admin.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         NewGormLogger(zap.NewNop(), 0),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test schema: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("creating test schema tables: %v", err)
	}
	return db
}

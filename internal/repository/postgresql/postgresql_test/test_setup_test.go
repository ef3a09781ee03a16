package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

// TestDatabaseSetup holds a connection to the test database with migrations applied
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the migrations in migrationsDir.
// It returns nil without error when TEST_DATABASE_URL is not set.
func NewTestDatabase(ctx context.Context, migrationsDir string) (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 5, MinConns: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := db.Migrate(ctx, migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// TruncateAllTables removes every row written by the payroll tests
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"payslips",
		"payruns",
		"salary_structures",
		"leave_requests",
		"attendances",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

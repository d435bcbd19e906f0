package migration

import (
	"context"
	"fmt"
	"log"

	"timestudy/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The DDL is restricted to the
// subset PostgreSQL and SQLite both accept.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Tables in reverse dependency order
var tables = []string{
	"auth_sessions",
	"operation_timings",
	"time_study_sessions",
	"operator_process_access",
	"operations",
	"processes",
	"users",
	"companies",
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name string
		ddl  string
	}{
		{"companies", `
			CREATE TABLE IF NOT EXISTS companies (
				id VARCHAR(36) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) PRIMARY KEY,
				badge_id VARCHAR(100) NOT NULL UNIQUE,
				name VARCHAR(255) NOT NULL,
				role VARCHAR(20) NOT NULL,
				company_id VARCHAR(36) NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`},
		{"processes", `
			CREATE TABLE IF NOT EXISTS processes (
				id VARCHAR(36) PRIMARY KEY,
				company_id VARCHAR(36) NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				tracking_count INTEGER NOT NULL DEFAULT 0,
				last_tracked_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL,
				UNIQUE (company_id, name)
			)`},
		{"operations", `
			CREATE TABLE IF NOT EXISTS operations (
				id VARCHAR(36) PRIMARY KEY,
				process_id VARCHAR(36) NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
				operation_code VARCHAR(100) NOT NULL,
				description TEXT NOT NULL,
				standard_time_seconds DOUBLE PRECISION,
				tools_required TEXT,
				quality_check TEXT,
				sequence_number INTEGER NOT NULL,
				UNIQUE (process_id, operation_code)
			)`},
		{"operator_process_access", `
			CREATE TABLE IF NOT EXISTS operator_process_access (
				user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				process_id VARCHAR(36) NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
				PRIMARY KEY (user_id, process_id)
			)`},
		{"time_study_sessions", `
			CREATE TABLE IF NOT EXISTS time_study_sessions (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				process_id VARCHAR(36) NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
				status VARCHAR(20) NOT NULL DEFAULT 'open',
				started_at TIMESTAMP NOT NULL,
				completed_at TIMESTAMP
			)`},
		{"operation_timings", `
			CREATE TABLE IF NOT EXISTS operation_timings (
				id VARCHAR(36) PRIMARY KEY,
				session_id VARCHAR(36) NOT NULL REFERENCES time_study_sessions(id) ON DELETE CASCADE,
				operation_id VARCHAR(36) NOT NULL REFERENCES operations(id) ON DELETE CASCADE,
				start_time TIMESTAMP NOT NULL,
				end_time TIMESTAMP,
				total_time_seconds DOUBLE PRECISION,
				time_between_operations_seconds BIGINT
			)`},
		{"auth_sessions", `
			CREATE TABLE IF NOT EXISTS auth_sessions (
				token VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expires_at TIMESTAMP NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`},
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", step.name)
		}
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	log.Printf("[Migration] Schema version %s applied (%s)", r.version, db.DriverName())
	return nil
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id)",
		"CREATE INDEX IF NOT EXISTS idx_operations_process_seq ON operations(process_id, sequence_number)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_user ON time_study_sessions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_started ON time_study_sessions(started_at)",
		"CREATE INDEX IF NOT EXISTS idx_timings_session ON operation_timings(session_id, end_time)",
		"CREATE INDEX IF NOT EXISTS idx_timings_operation ON operation_timings(operation_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_timings_one_open ON operation_timings(session_id, operation_id) WHERE end_time IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_auth_sessions_expiry ON auth_sessions(expires_at)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops every table owned by the schema
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	log.Println("[Migration] Resetting database - dropping all tables...")

	suffix := ""
	if db.DriverName() == "postgres" {
		suffix = " CASCADE"
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s%s", table, suffix)); err != nil {
			return errors.Wrapf(err, "failed to drop table %s", table)
		}
	}

	log.Println("[Migration] Database reset complete")
	return nil
}

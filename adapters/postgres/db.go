package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log"
	"strings"

	"timestudy/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database. PostgreSQL is the production store; SQLite is used
// for local runs and tests and is limited to a single connection.
func Open(driver, url string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres:
		db, err := sqlx.Connect(DriverPostgres, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	case DriverSQLite:
		db, err := sqlx.Connect(DriverSQLite, url)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
			}
		}
		return db, nil
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driver))
	}
}

// translateError maps driver errors onto the application taxonomy
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	if isUniqueViolation(err) {
		return &errors.AppError{
			Code:    errors.CodeConflict,
			Message: fmt.Sprintf("%s already exists", resource),
			Cause:   err,
		}
	}
	return &errors.AppError{
		Code:    errors.CodeDatabaseError,
		Message: fmt.Sprintf("%s query failed", resource),
		Cause:   err,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// withTx runs fn inside a transaction, committing only when fn succeeds
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return &errors.AppError{Code: errors.CodeDatabaseError, Message: "failed to begin transaction", Cause: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[withTx] Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &errors.AppError{Code: errors.CodeDatabaseError, Message: "failed to commit transaction", Cause: err}
	}
	return nil
}

// expectAffected turns an update that matched no rows into NotFound
func expectAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translateError(err, resource)
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

package repository

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Transact runs fn inside a transaction, rolling back on error.
func Transact(db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			slog.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isUniqueViolation detects unique constraint errors for both SQLite and
// PostgreSQL. The column argument narrows the check to a specific index or
// column name; pass "" to match any unique violation.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") &&
		!strings.Contains(errStr, "duplicate key value") &&
		!strings.Contains(errStr, "unique constraint") {
		return false
	}
	if column == "" {
		return true
	}
	return strings.Contains(errStr, column)
}

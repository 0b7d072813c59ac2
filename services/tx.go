package services

import (
	"errors"
	"strings"

	"streak-challenge-system/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds SELECT ... FOR UPDATE on Postgres. SQLite has no row
// locks; its single-writer transactions serialize writers on their own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// runSerialized wraps a transaction and retries it once when the database
// reports a transient concurrency failure. A second failure surfaces as
// ErrTransientConflict so handlers can return 409 instead of 500.
func runSerialized(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(fn)
	if err == nil || !isTransientConflict(err) {
		return err
	}
	err = db.Transaction(fn)
	if err != nil && isTransientConflict(err) {
		return models.ErrTransientConflict
	}
	return err
}

// isTransientConflict matches serialization failures and deadlocks from
// Postgres plus SQLite's busy errors. Everything else is a real failure.
func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

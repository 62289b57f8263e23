// package repositories provides persistence layer implementations for all model types.
//
// Catalog repositories implement models.Repository[T, K] for a specific entity type.
package repositories

import (
	"database/sql"
	"fmt"
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// inTx runs fn inside a transaction, committing when it returns nil.
func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NextPosition returns the position after the last child of parentID in table.
func NextPosition(q querier, table, parentColumn, parentID string) (int, error) {
	var next int
	query := fmt.Sprintf("SELECT COALESCE(MAX(position) + 1, 0) FROM %s WHERE %s = ?", table, parentColumn)
	if err := q.QueryRow(query, parentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next position: %w", err)
	}
	return next, nil
}

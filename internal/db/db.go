// Package db implements the sqlite-backed store for the screening pipeline:
// dimension tables (study, component, endpoint, well), per-level measurement
// tables, the method-assignment registry, and noise-band cutoffs.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/assay.report/internal/hcs"
)

type DB struct {
	*sql.DB
}

// Open opens the database at path without touching the schema. Use
// OpenAndMigrate for normal startup; Open is for migration tooling that
// manages the schema itself.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{sdb}, nil
}

// OpenAndMigrate opens the database and applies all pending migrations.
func OpenAndMigrate(path string) (*DB, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapStoreErr tags sqlite constraint breaches as integrity violations so
// callers can match them with errors.Is(err, hcs.ErrStoreIntegrity).
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %v", hcs.ErrStoreIntegrity, err)
	}
	return err
}

package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"
)

//go:embed scripts/initdb.sql
var initSQL string

const (
	schemaVersion = 1

	// bootstrapLockID keys the advisory lock that keeps replicas from
	// applying the schema at the same time.
	bootstrapLockID = 0x534c4944
)

// EnsureBootstrapped applies scripts/initdb.sql inside one transaction unless
// slidewise_meta already records schemaVersion.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockID); err != nil {
		return fmt.Errorf("bootstrap lock: %w", err)
	}

	applied, err := schemaApplied(ctx, tx)
	if err != nil {
		return err
	}
	if applied {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("exec initdb.sql: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}

func schemaApplied(ctx context.Context, tx *sql.Tx) (bool, error) {
	var table sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT to_regclass('slidewise_meta')::text`).Scan(&table); err != nil {
		return false, fmt.Errorf("meta table check: %w", err)
	}
	if !table.Valid {
		return false, nil
	}
	var ok bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM slidewise_meta WHERE version = $1)`, schemaVersion).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("meta version check: %w", err)
	}
	return ok, nil
}

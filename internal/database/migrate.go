package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_store_snapshots.up.sql
var initialMigrationSQL string

//go:embed migrations/002_snapshot_revision.up.sql
var snapshotRevisionSQL string

var requiredTables = []string{
	"store_snapshots",
}

func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	exists, err := db.hasAllRequiredTables(ctx)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}

	if !exists {
		slog.Info("database schema missing tables; applying initial migration")
		if _, err := db.Pool.Exec(ctx, initialMigrationSQL); err != nil {
			return fmt.Errorf("apply initial migration: %w", err)
		}

		exists, err = db.hasAllRequiredTables(ctx)
		if err != nil {
			return fmt.Errorf("re-check tables after migration: %w", err)
		}

		if !exists {
			return fmt.Errorf("schema initialization incomplete: required tables are still missing")
		}
	}

	if err := db.applySnapshotRevision(ctx); err != nil {
		return fmt.Errorf("apply snapshot revision migration: %w", err)
	}

	slog.Info("database schema ensured")
	return nil
}

// applySnapshotRevision runs migration 002 when the revision column is missing.
func (db *DB) applySnapshotRevision(ctx context.Context) error {
	var hasColumn bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = 'public'
			  AND table_name = 'store_snapshots'
			  AND column_name = 'revision'
		)
	`).Scan(&hasColumn)
	if err != nil {
		return fmt.Errorf("check revision column: %w", err)
	}

	if !hasColumn {
		slog.Info("applying snapshot revision migration (002)")
		if _, err := db.Pool.Exec(ctx, snapshotRevisionSQL); err != nil {
			return fmt.Errorf("exec snapshot revision SQL: %w", err)
		}
	}

	return nil
}

func (db *DB) hasAllRequiredTables(ctx context.Context) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_name = ANY($1)
	`, requiredTables).Scan(&count)
	if err != nil {
		return false, err
	}

	return count == len(requiredTables), nil
}

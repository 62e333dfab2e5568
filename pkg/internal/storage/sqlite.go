package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver
)

// NewSQLite creates and initializes a SQLite database connection.
func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := createIndexes(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Debug("Initialized inventory database",
		"path", path,
	)

	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_name        TEXT PRIMARY KEY,
			class           TEXT NOT NULL DEFAULT '',
			color           TEXT NOT NULL DEFAULT '',
			enabled         INTEGER NOT NULL DEFAULT 1,
			last_seen_build INTEGER NOT NULL DEFAULT 0,
			last_sync_time  INTEGER,
			created_at      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS job_changes (
			job_name   TEXT NOT NULL,
			action     TEXT NOT NULL,
			event_time INTEGER NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return err
		}
	}

	return nil
}

func createIndexes(ctx context.Context, db *sql.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_jobs_enabled ON jobs(enabled)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_enabled_lastseen ON jobs(enabled, last_seen_build)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_last_sync_time ON jobs(last_sync_time)",
		"CREATE INDEX IF NOT EXISTS idx_job_changes_time ON job_changes(event_time)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}

	return nil
}

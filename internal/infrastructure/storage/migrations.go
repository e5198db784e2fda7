package storage

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "create_segmentation_runs_table", createSegmentationRunsTable},
	{2, "create_segmentation_runs_indices", createSegmentationRunsIndices},
}

// applyMigrations applies all pending migrations in order.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("could not create migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const createSegmentationRunsTable = `
CREATE TABLE segmentation_runs (
	id TEXT PRIMARY KEY,
	model_id TEXT,
	provider TEXT,
	unit TEXT NOT NULL,
	max_size INTEGER NOT NULL,
	input_size INTEGER DEFAULT 0,
	chunk_count INTEGER DEFAULT 0,
	paragraph_count INTEGER DEFAULT 0,
	truncated BOOLEAN DEFAULT 0,
	duration_ns INTEGER DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	correlation_id TEXT
);
`

const createSegmentationRunsIndices = `
CREATE INDEX IF NOT EXISTS idx_segmentation_runs_created ON segmentation_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_segmentation_runs_model ON segmentation_runs(model_id);
`

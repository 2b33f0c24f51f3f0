package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add collection and timestamp index for bulk run listing",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_bulk_runs_collection_started ON bulk_runs(collection, started_at DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_bulk_runs_collection_started;
		`,
	},
	{
		Version: 2,
		Name:    "Add run index for bulk run items",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_bulk_run_items_run ON bulk_run_items(run_id, position);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_bulk_run_items_run;
		`,
	},
}

// InitSchema creates the base tables
func InitSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS bulk_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			folder TEXT NOT NULL DEFAULT '',
			total INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			duration_ms REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bulk_run_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			request_id TEXT NOT NULL,
			status TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			duration_ms REAL NOT NULL,
			error TEXT,
			FOREIGN KEY (run_id) REFERENCES bulk_runs(id) ON DELETE CASCADE
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Run initializes the schema and applies pending migrations
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the highest applied migration version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}

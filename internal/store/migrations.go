package store

import "fmt"

// migrations are applied in order; the database's user_version records how
// many have run. Append only.
var migrations = [][]string{
	{
		// One row per hold-to-confirm round trip.
		`CREATE TABLE generations (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL CHECK(status IN ('pending', 'succeeded', 'failed', 'closed')),
			error TEXT NOT NULL DEFAULT '',
			result_url TEXT NOT NULL DEFAULT '',
			snapshot BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,
		`CREATE INDEX idx_generations_created_at ON generations(created_at)`,
	},
	{
		// Images saved from the result overlay.
		`CREATE TABLE exports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			generation_id TEXT REFERENCES generations(id) ON DELETE SET NULL,
			view TEXT NOT NULL CHECK(view IN ('original', 'ai', 'split')),
			path TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX idx_exports_generation_id ON exports(generation_id)`,
	},
	{
		`CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
}

// SchemaVersion returns the number of migrations applied to the database.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// runMigrations applies the migrations the database has not seen yet, all
// in one transaction.
func (s *Store) runMigrations() error {
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(migrations))
	}
	if current == len(migrations) {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, steps := range migrations[current:] {
		for _, stmt := range steps {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("migration %d: %w", current+i+1, err)
			}
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return tx.Commit()
}

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/pantry/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/pantry.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pantry.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the DSN apply to every pooled connection. Write transactions
	// start IMMEDIATE so read-then-write sequences never race for the lock.
	dbPath := filepath.Join(baseDir, "pantry.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS catalog_ingredients (
		  id                TEXT PRIMARY KEY,
		  name              TEXT NOT NULL,
		  name_norm         TEXT NOT NULL UNIQUE,
		  category          TEXT NOT NULL,
		  is_assumed_staple INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS unrecognized_entries (
		  id          TEXT PRIMARY KEY,
		  owner_id    TEXT NOT NULL,
		  raw_text    TEXT NOT NULL,
		  raw_norm    TEXT NOT NULL,
		  context     TEXT,
		  resolved_at INTEGER,
		  created_at  INTEGER NOT NULL,
		  UNIQUE (owner_id, raw_norm)
		);

		CREATE TABLE IF NOT EXISTS inventory_entries (
		  id               TEXT PRIMARY KEY,
		  owner_id         TEXT NOT NULL,
		  catalog_id       TEXT REFERENCES catalog_ingredients(id),
		  unrecognized_id  TEXT REFERENCES unrecognized_entries(id),
		  quantity_level   INTEGER NOT NULL CHECK (quantity_level BETWEEN 0 AND 3),
		  is_pantry_staple INTEGER NOT NULL DEFAULT 0,
		  updated_at       INTEGER NOT NULL,
		  CHECK ((catalog_id IS NULL) <> (unrecognized_id IS NULL))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_owner_catalog
		ON inventory_entries(owner_id, catalog_id)
		WHERE catalog_id IS NOT NULL;

		CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_owner_unrecognized
		ON inventory_entries(owner_id, unrecognized_id)
		WHERE unrecognized_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS recipes (
		  id          TEXT PRIMARY KEY,
		  owner_id    TEXT NOT NULL,
		  title       TEXT NOT NULL,
		  description TEXT,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_recipes_owner_updated
		ON recipes(owner_id, updated_at DESC);

		CREATE TABLE IF NOT EXISTS recipe_ingredients (
		  recipe_id       TEXT NOT NULL REFERENCES recipes(id),
		  owner_id        TEXT NOT NULL,
		  position        INTEGER NOT NULL,
		  catalog_id      TEXT REFERENCES catalog_ingredients(id),
		  unrecognized_id TEXT REFERENCES unrecognized_entries(id),
		  role            TEXT NOT NULL CHECK (role IN ('anchor', 'optional')),
		  CHECK ((catalog_id IS NULL) <> (unrecognized_id IS NULL))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_recipe_ingredients_catalog
		ON recipe_ingredients(recipe_id, catalog_id)
		WHERE catalog_id IS NOT NULL;

		CREATE UNIQUE INDEX IF NOT EXISTS idx_recipe_ingredients_unrecognized
		ON recipe_ingredients(recipe_id, unrecognized_id)
		WHERE unrecognized_id IS NOT NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

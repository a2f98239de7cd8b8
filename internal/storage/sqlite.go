package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 2

// SQLiteFlagStore implements FlagStore using a SQLite database.
type SQLiteFlagStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteFlagStore opens (and migrates) the database at path.
func NewSQLiteFlagStore(path string) (*SQLiteFlagStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteFlagStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteFlagStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteFlagStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteFlagStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

// migrate runs database migrations.
func (s *SQLiteFlagStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if version < currentSchemaVersion {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the flags table.
func (s *SQLiteFlagStore) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS flags (
			user_id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (user_id, namespace, key)
		);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds updated_at for diagnostics.
func (s *SQLiteFlagStore) migrateV2() error {
	migration := `
		ALTER TABLE flags ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';
		UPDATE schema_version SET version = 2;
	`
	_, err := s.db.Exec(migration)
	return err
}

// GetFlag reads one value.
func (s *SQLiteFlagStore) GetFlag(ctx context.Context, ref Ref) ([]byte, bool, error) {
	if err := ref.validate(); err != nil {
		return nil, false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM flags
		WHERE user_id = ? AND namespace = ? AND key = ?
	`, ref.User, ref.Namespace, ref.Key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return []byte(value), true, nil
}

// SetFlag upserts one value in a single statement.
func (s *SQLiteFlagStore) SetFlag(ctx context.Context, ref Ref, value []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flags (user_id, namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, namespace, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, ref.User, ref.Namespace, ref.Key, string(value), time.Now().UTC().Format(time.RFC3339))
	return err
}

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// timeLayout keeps a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schemaVersion is recorded in kdf_meta when the schema is created.
const schemaVersion = "1"

const createSchema = `
CREATE TABLE IF NOT EXISTS kdf_profiles (
	name        TEXT PRIMARY KEY,
	algorithm   TEXT NOT NULL,
	iterations  INTEGER NOT NULL DEFAULT 0,
	n           INTEGER NOT NULL DEFAULT 0,
	r           INTEGER NOT NULL DEFAULT 0,
	p           INTEGER NOT NULL DEFAULT 0,
	length      INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kdf_derivations (
	id          TEXT PRIMARY KEY,
	algorithm   TEXT NOT NULL,
	profile     TEXT NOT NULL DEFAULT '',
	params      TEXT NOT NULL,
	key_length  INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kdf_benchmarks (
	id           TEXT PRIMARY KEY,
	profile      TEXT NOT NULL,
	params       TEXT NOT NULL,
	runs         INTEGER NOT NULL,
	mean_ms      REAL NOT NULL,
	min_ms       REAL NOT NULL,
	max_ms       REAL NOT NULL,
	memory_bytes INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kdf_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_derivations_created ON kdf_derivations(created_at);
CREATE INDEX IF NOT EXISTS idx_benchmarks_profile ON kdf_benchmarks(profile, created_at);
`

// DB wraps a *sql.DB with synckdf metadata operations. It never stores
// secrets, salts or derived keys.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at path, creating its directory.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(createSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.checkSchemaVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

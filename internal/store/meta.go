package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const schemaVersionKey = "schema_version"

// ErrSchemaVersion is returned by Open for a database written by a newer or
// incompatible synckdf.
var ErrSchemaVersion = errors.New("unsupported schema version")

// SchemaVersion returns the schema version recorded in kdf_meta.
func (d *DB) SchemaVersion() (string, error) {
	var v string
	err := d.conn.QueryRow("SELECT value FROM kdf_meta WHERE key = ?", schemaVersionKey).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// checkSchemaVersion stamps a fresh database with schemaVersion and rejects
// one stamped with anything else.
func (d *DB) checkSchemaVersion() error {
	v, err := d.SchemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	switch v {
	case schemaVersion:
		return nil
	case "":
		_, err := d.conn.Exec(
			"INSERT INTO kdf_meta (key, value) VALUES (?, ?)",
			schemaVersionKey, schemaVersion,
		)
		if err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w %q, want %q", ErrSchemaVersion, v, schemaVersion)
}

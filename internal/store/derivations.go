package store

import (
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded for successful derivations. Failures record the
// error kind instead.
const OutcomeOK = "ok"

// Derivation represents a row in kdf_derivations. It describes a derivation
// without any of its inputs or output.
type Derivation struct {
	ID         string
	Algorithm  string
	Profile    string
	Params     string
	KeyLength  uint32
	Outcome    string
	DurationMS int64
	CreatedAt  time.Time
}

// LogDerivation writes a derivation log entry.
func (d *DB) LogDerivation(entry Derivation) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := d.conn.Exec(
		`INSERT INTO kdf_derivations (id, algorithm, profile, params, key_length, outcome, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Algorithm, entry.Profile, entry.Params, entry.KeyLength,
		entry.Outcome, entry.DurationMS,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// RecentDerivations retrieves recent derivation log entries, newest first.
func (d *DB) RecentDerivations(limit int) ([]Derivation, error) {
	rows, err := d.conn.Query(
		`SELECT id, algorithm, profile, params, key_length, outcome, duration_ms, created_at
		 FROM kdf_derivations ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Derivation
	for rows.Next() {
		var e Derivation
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Algorithm, &e.Profile, &e.Params, &e.KeyLength,
			&e.Outcome, &e.DurationMS, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package store

import (
	"database/sql"
	"time"

	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/profile"
)

// SaveProfile upserts a user profile. Callers validate it first.
func (d *DB) SaveProfile(p profile.Profile) error {
	_, err := d.conn.Exec(
		`INSERT INTO kdf_profiles (name, algorithm, iterations, n, r, p, length, description, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			algorithm = excluded.algorithm,
			iterations = excluded.iterations,
			n = excluded.n,
			r = excluded.r,
			p = excluded.p,
			length = excluded.length,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		p.Name, string(p.Algorithm), p.Iterations, int64(p.N), p.R, p.P, p.Length, p.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProfile retrieves a user profile by name. Returns nil if not found.
func (d *DB) GetProfile(name string) (*profile.Profile, error) {
	row := d.conn.QueryRow(
		"SELECT name, algorithm, iterations, n, r, p, length, description FROM kdf_profiles WHERE name = ?",
		name,
	)
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListProfiles returns all user profiles ordered by name.
func (d *DB) ListProfiles() ([]profile.Profile, error) {
	rows, err := d.conn.Query(
		"SELECT name, algorithm, iterations, n, r, p, length, description FROM kdf_profiles ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a user profile. Returns false if it did not exist.
func (d *DB) DeleteProfile(name string) (bool, error) {
	res, err := d.conn.Exec("DELETE FROM kdf_profiles WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*profile.Profile, error) {
	var p profile.Profile
	var algorithm string
	var n int64
	if err := s.Scan(&p.Name, &algorithm, &p.Iterations, &n, &p.R, &p.P, &p.Length, &p.Description); err != nil {
		return nil, err
	}
	p.Algorithm = kdf.Algorithm(algorithm)
	p.N = uint64(n)
	return &p, nil
}

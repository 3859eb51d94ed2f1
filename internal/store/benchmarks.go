package store

import (
	"time"

	"github.com/google/uuid"
)

// Benchmark represents a row in kdf_benchmarks.
type Benchmark struct {
	ID          string
	Profile     string
	Params      string
	Runs        int
	MeanMS      float64
	MinMS       float64
	MaxMS       float64
	MemoryBytes uint64
	CreatedAt   time.Time
}

// SaveBenchmark records a benchmark result.
func (d *DB) SaveBenchmark(b Benchmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := d.conn.Exec(
		`INSERT INTO kdf_benchmarks (id, profile, params, runs, mean_ms, min_ms, max_ms, memory_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Profile, b.Params, b.Runs, b.MeanMS, b.MinMS, b.MaxMS, int64(b.MemoryBytes),
		b.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// ListBenchmarks returns benchmark results, newest first. An empty profile
// lists every profile.
func (d *DB) ListBenchmarks(profile string, limit int) ([]Benchmark, error) {
	rows, err := d.conn.Query(
		`SELECT id, profile, params, runs, mean_ms, min_ms, max_ms, memory_bytes, created_at
		 FROM kdf_benchmarks WHERE ? = '' OR profile = ? ORDER BY created_at DESC LIMIT ?`,
		profile, profile, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Benchmark
	for rows.Next() {
		var b Benchmark
		var mem int64
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Profile, &b.Params, &b.Runs, &b.MeanMS, &b.MinMS, &b.MaxMS,
			&mem, &createdAt); err != nil {
			return nil, err
		}
		b.MemoryBytes = uint64(mem)
		b.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		results = append(results, b)
	}
	return results, rows.Err()
}

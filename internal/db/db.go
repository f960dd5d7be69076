// Package db persists the per-cycle count history in sqlite.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the history database at path and ensures the
// schema exists. Use ":memory:" for tests.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS counts (
			count_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			recorded_at       TIMESTAMP NOT NULL,
			to_johor          INTEGER NOT NULL,
			to_woodlands      INTEGER NOT NULL,
			excluded          INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_counts_recorded_at ON counts(recorded_at);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// CountRecord is one analysis cycle's tallies.
type CountRecord struct {
	CountID     int64     `json:"count_id"`
	RunID       string    `json:"run_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	ToJohor     int       `json:"to_johor"`
	ToWoodlands int       `json:"to_woodlands"`
	Excluded    int       `json:"excluded"`
}

// String formats the record for diagnostics.
func (r *CountRecord) String() string {
	return fmt.Sprintf("RunID: %s, RecordedAt: %s, ToJohor: %d, ToWoodlands: %d, Excluded: %d",
		r.RunID, r.RecordedAt.Format(time.RFC3339), r.ToJohor, r.ToWoodlands, r.Excluded)
}

// RecordCounts appends one cycle's tallies. Timestamps are stored in UTC.
func (db *DB) RecordCounts(rec CountRecord) error {
	_, err := db.Exec(
		`INSERT INTO counts (run_id, recorded_at, to_johor, to_woodlands, excluded) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.RecordedAt.UTC().Format(time.RFC3339), rec.ToJohor, rec.ToWoodlands, rec.Excluded,
	)
	if err != nil {
		return fmt.Errorf("record counts: %w", err)
	}
	return nil
}

// CountsSince returns records at or after the given time, oldest first.
// Readers chart a trailing window, so the query is index-backed.
func (db *DB) CountsSince(since time.Time) ([]CountRecord, error) {
	rows, err := db.Query(
		`SELECT count_id, run_id, recorded_at, to_johor, to_woodlands, excluded
		 FROM counts WHERE recorded_at >= ? ORDER BY recorded_at ASC`,
		since.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCountRows(rows)
}

// LatestCounts returns the most recent record, or nil if none exist.
func (db *DB) LatestCounts() (*CountRecord, error) {
	rows, err := db.Query(
		`SELECT count_id, run_id, recorded_at, to_johor, to_woodlands, excluded
		 FROM counts ORDER BY recorded_at DESC LIMIT 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanCountRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func scanCountRows(rows *sql.Rows) ([]CountRecord, error) {
	var records []CountRecord
	for rows.Next() {
		var (
			rec        CountRecord
			recordedAt string
		)
		if err := rows.Scan(&rec.CountID, &rec.RunID, &recordedAt, &rec.ToJohor, &rec.ToWoodlands, &rec.Excluded); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		rec.RecordedAt = ts
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

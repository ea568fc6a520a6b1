// Package history records finished conversions in a local SQLite database so
// the frontend can show recent jobs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Conversion is one recorded STL generation.
type Conversion struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	WidthMM     float64   `json:"width_mm"`
	ThicknessMM float64   `json:"thickness_mm"`
	BorderMM    float64   `json:"border_mm"`
	Triangles   int       `json:"triangles"`
	SizeBytes   int       `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB wraps the conversions database.
type DB struct {
	*sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id TEXT PRIMARY KEY,
	filename TEXT,
	width_mm REAL,
	thickness_mm REAL,
	border_mm REAL,
	triangles INTEGER,
	size_bytes INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS conversions_created_at ON conversions(created_at);
`

// Open opens (creating if necessary) the conversions database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &DB{db}, nil
}

// Record inserts a conversion. A zero CreatedAt is stamped with the current
// time.
func (db *DB) Record(c Conversion) error {
	when := c.CreatedAt
	if when.IsZero() {
		when = time.Now()
	}
	_, err := db.Exec(
		`INSERT INTO conversions
			(id, filename, width_mm, thickness_mm, border_mm, triangles, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Filename, c.WidthMM, c.ThicknessMM, c.BorderMM, c.Triangles, c.SizeBytes, when.Unix(),
	)
	if err != nil {
		return fmt.Errorf("history: record conversion %s: %w", c.ID, err)
	}
	return nil
}

// Recent returns up to limit conversions, newest first.
func (db *DB) Recent(limit int) ([]Conversion, error) {
	rows, err := db.Query(
		`SELECT id, filename, width_mm, thickness_mm, border_mm, triangles, size_bytes, created_at
		 FROM conversions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var ts int64
		if err := rows.Scan(&c.ID, &c.Filename, &c.WidthMM, &c.ThicknessMM, &c.BorderMM,
			&c.Triangles, &c.SizeBytes, &ts); err != nil {
			return nil, fmt.Errorf("history: scan conversion: %w", err)
		}
		c.CreatedAt = time.Unix(ts, 0)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list conversions: %w", err)
	}
	return out, nil
}

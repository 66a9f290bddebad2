// Package catalog persists the satellite catalog and detected conjunction
// events in SQLite.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/recepsuluker/OrbitGuardAI/internal/risk"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

// Catalog wraps the SQLite database holding satellites, conjunction events
// and the catalog update history.
type Catalog struct {
	*sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS satellites (
		norad_id INTEGER PRIMARY KEY,
		object_name TEXT NOT NULL,
		tle_line1 TEXT NOT NULL,
		tle_line2 TEXT NOT NULL,
		epoch TEXT NOT NULL,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_object_name ON satellites(object_name);

	CREATE TABLE IF NOT EXISTS conjunction_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		norad_id_1 INTEGER NOT NULL,
		norad_id_2 INTEGER NOT NULL,
		distance_km REAL NOT NULL,
		relative_velocity_km_s REAL NOT NULL,
		risk_level TEXT NOT NULL,
		detected_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_detected_at ON conjunction_events(detected_at);

	CREATE TABLE IF NOT EXISTS update_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		update_type TEXT NOT NULL,
		satellites_updated INTEGER,
		status TEXT,
		error_message TEXT,
		timestamp TEXT DEFAULT CURRENT_TIMESTAMP
	);
`

// Open opens (creating if necessary) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}

	return &Catalog{db}, nil
}

// UpsertSatellites inserts or replaces catalog rows for the given entries.
// Returns the number of rows written.
func (c *Catalog) UpsertSatellites(entries []tle.Entry) (int, error) {
	tx, err := c.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO satellites (norad_id, object_name, tle_line1, tle_line2, epoch, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, e := range entries {
		if _, err := stmt.Exec(e.NORADID, e.Name, e.Line1, e.Line2, e.Epoch.Format(time.RFC3339)); err != nil {
			return count, fmt.Errorf("upserting satellite %d: %w", e.NORADID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("committing upsert: %w", err)
	}
	return count, nil
}

// SatelliteRow is one catalog row.
type SatelliteRow struct {
	NORADID   int    `json:"norad_id"`
	Name      string `json:"object_name"`
	Line1     string `json:"tle_line1"`
	Line2     string `json:"tle_line2"`
	Epoch     string `json:"epoch"`
	UpdatedAt string `json:"updated_at"`
}

// Search returns catalog rows whose name or NORAD id matches query,
// ordered by name. An empty query returns the first rows by name.
func (c *Catalog) Search(query string, limit int) ([]SatelliteRow, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := c.Query(`
		SELECT norad_id, object_name, tle_line1, tle_line2, epoch, updated_at
		FROM satellites
		WHERE object_name LIKE ? OR CAST(norad_id AS TEXT) LIKE ?
		ORDER BY object_name
		LIMIT ?`,
		"%"+query+"%", "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching satellites: %w", err)
	}
	defer rows.Close()

	var out []SatelliteRow
	for rows.Next() {
		var s SatelliteRow
		if err := rows.Scan(&s.NORADID, &s.Name, &s.Line1, &s.Line2, &s.Epoch, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning satellite row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats summarizes catalog contents.
type Stats struct {
	TotalSatellites  int    `json:"total_satellites"`
	ConjunctionCount int    `json:"conjunction_events"`
	LastUpdate       string `json:"last_update,omitempty"`
}

// Statistics returns catalog-wide counts and the most recent update time.
func (c *Catalog) Statistics() (Stats, error) {
	var st Stats
	if err := c.QueryRow(`SELECT COUNT(*) FROM satellites`).Scan(&st.TotalSatellites); err != nil {
		return st, fmt.Errorf("counting satellites: %w", err)
	}
	if err := c.QueryRow(`SELECT COUNT(*) FROM conjunction_events`).Scan(&st.ConjunctionCount); err != nil {
		return st, fmt.Errorf("counting conjunction events: %w", err)
	}

	var last sql.NullString
	if err := c.QueryRow(`SELECT MAX(updated_at) FROM satellites`).Scan(&last); err != nil {
		return st, fmt.Errorf("reading last update: %w", err)
	}
	if last.Valid {
		st.LastUpdate = last.String
	}
	return st, nil
}

// RecordConjunctions appends the detected events to the event log.
func (c *Catalog) RecordConjunctions(events []risk.Event, detectedAt time.Time) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := c.Begin()
	if err != nil {
		return fmt.Errorf("beginning event insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO conjunction_events (norad_id_1, norad_id_2, distance_km, relative_velocity_km_s, risk_level, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	ts := detectedAt.UTC().Format(time.RFC3339)
	for _, e := range events {
		if _, err := stmt.Exec(e.NORADID1, e.NORADID2, e.DistanceKm, e.RelativeVelocityKmS, string(e.Level), ts); err != nil {
			return fmt.Errorf("inserting conjunction event: %w", err)
		}
	}

	return tx.Commit()
}

// EventRow is one persisted conjunction event.
type EventRow struct {
	NORADID1            int     `json:"norad_id_1"`
	NORADID2            int     `json:"norad_id_2"`
	DistanceKm          float64 `json:"distance_km"`
	RelativeVelocityKmS float64 `json:"relative_velocity_km_s"`
	RiskLevel           string  `json:"risk_level"`
	DetectedAt          string  `json:"detected_at"`
}

// RecentConjunctions returns the newest events, most recent first.
func (c *Catalog) RecentConjunctions(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.Query(`
		SELECT norad_id_1, norad_id_2, distance_km, relative_velocity_km_s, risk_level, detected_at
		FROM conjunction_events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conjunction events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.NORADID1, &e.NORADID2, &e.DistanceKm, &e.RelativeVelocityKmS, &e.RiskLevel, &e.DetectedAt); err != nil {
			return nil, fmt.Errorf("scanning conjunction event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LogUpdate records one catalog sync attempt in the update history.
func (c *Catalog) LogUpdate(updateType string, count int, status, errMsg string) error {
	_, err := c.Exec(`
		INSERT INTO update_history (update_type, satellites_updated, status, error_message)
		VALUES (?, ?, ?, ?)`,
		updateType, count, status, errMsg)
	if err != nil {
		return fmt.Errorf("logging catalog update: %w", err)
	}
	return nil
}

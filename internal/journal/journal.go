// Package journal records handoff lifecycle events in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	handoff_id TEXT NOT NULL,
	action     TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_handoff ON events(handoff_id, id);
`

// Entry is one recorded lifecycle event.
type Entry struct {
	ID        int64     `json:"id"`
	HandoffID string    `json:"handoff_id"`
	Action    string    `json:"action"`
	Location  string    `json:"location"`
	Checksum  string    `json:"checksum"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends an entry.
func (db *DB) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO events (handoff_id, action, location, checksum, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.HandoffID, e.Action, e.Location, e.Checksum, e.Detail, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// History returns up to limit entries for handoffID, newest first.
func (db *DB) History(ctx context.Context, handoffID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, handoff_id, action, location, checksum, detail, created_at
		FROM events
		WHERE handoff_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, handoffID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.HandoffID, &e.Action, &e.Location, &e.Checksum, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

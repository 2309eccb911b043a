// Package journal keeps a SQLite record of imprint runs and the files they wrote.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS imprints (
	id         TEXT PRIMARY KEY,
	phase      TEXT NOT NULL DEFAULT '',
	semantic   TEXT NOT NULL,
	root       TEXT NOT NULL,
	files      INTEGER NOT NULL DEFAULT 0,
	bytes      INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS written_paths (
	imprint_id TEXT NOT NULL REFERENCES imprints(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	path       TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	checksum   TEXT NOT NULL,
	UNIQUE(imprint_id, path)
);

CREATE INDEX IF NOT EXISTS idx_written_paths_imprint ON written_paths(imprint_id, seq);
`

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
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

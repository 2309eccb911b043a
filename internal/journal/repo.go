package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/umwelt/internal/apperr"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 20

// Entry is one recorded imprint run.
type Entry struct {
	ID        string    `json:"id"`
	Phase     string    `json:"phase"`
	Semantic  string    `json:"semantic"`
	Root      string    `json:"root"`
	Files     int       `json:"files"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// WrittenFile is one file written by an imprint run.
type WrittenFile struct {
	Path     string `json:"path"`
	Bytes    int    `json:"bytes"`
	Checksum string `json:"checksum"`
}

// Record stores entry and its files within a transaction and returns the
// entry id. An empty entry.ID gets a fresh UUID; a zero CreatedAt gets now.
func (db *DB) Record(entry Entry, files []WrittenFile) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Files = len(files)
	entry.Bytes = 0
	for _, f := range files {
		entry.Bytes += f.Bytes
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO imprints (id, phase, semantic, root, files, bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Phase, entry.Semantic, entry.Root, entry.Files, entry.Bytes, entry.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("journal: insert imprint: %w", err)
	}

	if len(files) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO written_paths (imprint_id, seq, path, bytes, checksum) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("journal: prepare path insert: %w", err)
		}
		defer stmt.Close()
		for i, f := range files {
			if _, err := stmt.Exec(entry.ID, i, f.Path, f.Bytes, f.Checksum); err != nil {
				return "", fmt.Errorf("journal: insert path %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("journal: commit: %w", err)
	}
	return entry.ID, nil
}

// Get returns one entry by id.
func (db *DB) Get(id string) (*Entry, error) {
	var e Entry
	err := db.conn.QueryRow(`
		SELECT id, phase, semantic, root, files, bytes, created_at
		FROM imprints WHERE id = ?
	`, id).Scan(&e.ID, &e.Phase, &e.Semantic, &e.Root, &e.Files, &e.Bytes, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal: imprint %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get imprint: %w", err)
	}
	return &e, nil
}

// List returns the most recent entries first.
func (db *DB) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.conn.Query(`
		SELECT id, phase, semantic, root, files, bytes, created_at
		FROM imprints ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list imprints: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Phase, &e.Semantic, &e.Root, &e.Files, &e.Bytes, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WrittenPaths returns the files of an entry in write order.
func (db *DB) WrittenPaths(id string) ([]WrittenFile, error) {
	if _, err := db.Get(id); err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`
		SELECT path, bytes, checksum FROM written_paths
		WHERE imprint_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: written paths: %w", err)
	}
	defer rows.Close()

	out := []WrittenFile{}
	for rows.Next() {
		var f WrittenFile
		if err := rows.Scan(&f.Path, &f.Bytes, &f.Checksum); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

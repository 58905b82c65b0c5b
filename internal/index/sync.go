package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/neuronote/internal/models"
)

const checksumKey = "document_checksum"

// SearchResult represents one search hit.
type SearchResult struct {
	Position int    `json:"position"`
	Trashed  bool   `json:"trashed"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Sync replaces the mirrored entries with the contents of doc inside one
// transaction. It is a no-op when checksum matches the last synced document.
func (db *DB) Sync(doc *models.Document, checksum string) error {
	if checksum != "" {
		if cur, err := db.Checksum(); err == nil && cur == checksum {
			return nil
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("index: clear entries: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (trashed, position, title, content, summary) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()

	insert := func(trashed bool, pos int, n models.Note, summary string) error {
		if _, err := stmt.Exec(trashed, pos, n.Title, n.Content, summary); err != nil {
			return fmt.Errorf("index: insert entry: %w", err)
		}
		return ftsInsert(tx, trashed, pos, n.Title, n.Content, summary)
	}
	for i, n := range doc.Notes {
		summary := ""
		if i < len(doc.Summaries) {
			summary = doc.Summaries[i]
		}
		if err := insert(false, i, n, summary); err != nil {
			return err
		}
	}
	for i, n := range doc.Trash {
		if err := insert(true, i, n, ""); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checksumKey, checksum); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}
	return tx.Commit()
}

// Checksum returns the checksum of the last synced document, or empty string
// if nothing was synced yet.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, checksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of mirrored active and trashed notes.
func (db *DB) Count() (notes, trash int, err error) {
	err = db.conn.QueryRow(`
		SELECT COALESCE(SUM(trashed = 0), 0), COALESCE(SUM(trashed = 1), 0) FROM entries
	`).Scan(&notes, &trash)
	if err != nil {
		return 0, 0, fmt.Errorf("index: count: %w", err)
	}
	return notes, trash, nil
}

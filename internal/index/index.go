package index

import "github.com/starford/neuronote/internal/models"

// NoteIndex defines the search mirror operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	Sync(doc *models.Document, checksum string) error
	Checksum() (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)

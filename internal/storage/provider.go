// Package storage persists the notebook document.
package storage

import "github.com/starford/neuronote/internal/models"

// Provider is the interface for loading and saving the notebook document.
type Provider interface {
	// Load reads the document. A missing file yields an empty document.
	Load() (*models.Document, error)
	// Save atomically replaces the stored document.
	Save(doc *models.Document) error
	// Path returns the absolute path of the backing file.
	Path() string
	// LastChecksum returns the SHA-256 of the bytes last read or written.
	LastChecksum() string
}

package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/neuronote/internal/models"
)

// TempPrefix is the name prefix of in-flight atomic writes.
const TempPrefix = ".neuronote-tmp-"

// JSONFile implements Provider backed by a single JSON document.
type JSONFile struct {
	path string // absolute

	mu       sync.Mutex
	checksum string
}

// NewJSONFile creates a provider for the file at path. The parent directory
// is created if needed; the file itself may not exist yet.
func NewJSONFile(path string) (*JSONFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: data path is a directory: %s", abs)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	return &JSONFile{path: abs}, nil
}

// Path returns the absolute path of the document.
func (f *JSONFile) Path() string { return f.path }

// LastChecksum returns the checksum of the last bytes read or written.
func (f *JSONFile) LastChecksum() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checksum
}

// Load reads and decodes the document.
func (f *JSONFile) Load() (*models.Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	doc := models.NewDocument()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
		}
	}
	doc.Normalize()

	f.mu.Lock()
	f.checksum = Checksum(data)
	f.mu.Unlock()
	return doc, nil
}

// Save encodes doc with two-space indentation and writes it atomically.
func (f *JSONFile) Save(doc *models.Document) error {
	if doc == nil {
		doc = models.NewDocument()
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := WriteAtomic(f.path, data); err != nil {
		return err
	}
	f.checksum = Checksum(data)
	return nil
}

// Encode renders doc the way it is stored on disk: two-space indentation,
// no HTML escaping, non-ASCII kept literally.
func Encode(doc *models.Document) ([]byte, error) {
	out := *doc
	out.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteAtomic writes content to path: tmp file → fsync → rename.
func WriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

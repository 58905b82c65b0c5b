// Package testutil provides shared test helpers for setting up data files,
// databases, and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/neuronote/internal/index"
	"github.com/starford/neuronote/internal/noteservice"
	"github.com/starford/neuronote/internal/storage"
)

// Logger discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "neuronote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a JSON data file provider inside a temporary directory.
func TestStore(t *testing.T) *storage.JSONFile {
	t.Helper()
	store, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestService wires a service over a temporary store and index. Background
// summaries are drained on cleanup.
func TestService(t *testing.T, opts ...noteservice.Option) (*noteservice.Service, *storage.JSONFile) {
	t.Helper()
	store := TestStore(t)
	opts = append([]noteservice.Option{
		noteservice.WithIndex(TestDB(t)),
		noteservice.WithLogger(Logger()),
	}, opts...)
	svc, err := noteservice.New(store, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Wait)
	return svc, store
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

//go:build sqlite_fts5

package index

import (
	"testing"

	"github.com/starford/neuronote/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries_fts`).Scan(&count); err != nil {
		t.Fatalf("entries_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	doc := &models.Document{
		Notes:     []models.Note{{Title: "FTS Note", Content: "NeuroNote provides powerful full-text search capabilities."}},
		Summaries: []string{""},
	}
	if err := db.Sync(doc, "f1"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "FTS Note" {
		t.Errorf("title = %q", results[0].Title)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_SyncReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.Sync(&models.Document{Notes: []models.Note{{Title: "Old", Content: "original text"}}, Summaries: []string{""}}, "1")
	_ = db.Sync(&models.Document{Notes: []models.Note{{Title: "New", Content: "replacement text"}}, Summaries: []string{""}}, "2")

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

package api

import (
	"github.com/starford/neuronote/internal/index"
	"github.com/starford/neuronote/internal/models"
	"github.com/starford/neuronote/internal/notebook"
	"github.com/starford/neuronote/internal/summarizer"
)

// NoteRequest is the body for creating or editing a note.
type NoteRequest struct {
	Title   string `json:"title" example:"Shopping"`
	Content string `json:"content" example:"milk, eggs #home"`
}

// NoteItem is one active note in API responses.
type NoteItem struct {
	Position int    `json:"position" example:"0"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	Pending  bool   `json:"pending"`
	Category string `json:"category" example:"General"`
}

// NoteListResponse wraps the active notes.
type NoteListResponse struct {
	Notes []NoteItem `json:"notes"`
	Total int        `json:"total"`
}

// TrashItem is one trashed note.
type TrashItem struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// TrashListResponse wraps the trash.
type TrashListResponse struct {
	Trash []TrashItem `json:"trash"`
	Total int         `json:"total"`
}

// RestoreResponse reports where a restored note landed.
type RestoreResponse struct {
	Position int `json:"position"`
}

// SummarizeResponse is returned when a summary task is accepted.
type SummarizeResponse struct {
	Token    string `json:"token"`
	Position int    `json:"position"`
	Status   string `json:"status" example:"pending"`
}

// GroupsResponse maps category to notes.
type GroupsResponse struct {
	Groups map[string][]models.Note `json:"groups"`
}

// ExportRequest names the target directory. It is resolved against the
// configured export root; a blank Dir means the root itself.
type ExportRequest struct {
	Dir string `json:"dir" example:"reports"`
}

// ExportResponse reports the written file.
type ExportResponse struct {
	Path string `json:"path"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

func noteItem(e notebook.Entry) NoteItem {
	return NoteItem{
		Position: e.Position,
		Title:    e.Note.Title,
		Content:  e.Note.Content,
		Summary:  e.Summary,
		Pending:  e.Pending,
		Category: summarizer.Categorize(e.Note),
	}
}

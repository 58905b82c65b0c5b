// Package models defines the domain types for NeuroNote.
package models

// Note is an active title/content pair. Trash entries share the same shape.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Text returns the note as a single block of text, title first.
func (n Note) Text() string {
	return n.Title + "\n" + n.Content
}

// Document is the persisted form of the notebook. Summaries is parallel to Notes.
type Document struct {
	Notes     []Note   `json:"notes"`
	Trash     []Note   `json:"trash"`
	Summaries []string `json:"summaries"`
}

// NewDocument returns a document with three empty, non-nil collections.
func NewDocument() *Document {
	return &Document{
		Notes:     []Note{},
		Trash:     []Note{},
		Summaries: []string{},
	}
}

// Clone returns a copy of d that shares no slices with it.
func (d *Document) Clone() *Document {
	return &Document{
		Notes:     append([]Note(nil), d.Notes...),
		Trash:     append([]Note(nil), d.Trash...),
		Summaries: append([]string(nil), d.Summaries...),
	}
}

// Normalize replaces nil collections with empty ones and pads or truncates
// Summaries so that it has exactly one entry per note.
func (d *Document) Normalize() {
	if d.Notes == nil {
		d.Notes = []Note{}
	}
	if d.Trash == nil {
		d.Trash = []Note{}
	}
	if d.Summaries == nil {
		d.Summaries = []string{}
	}
	switch {
	case len(d.Summaries) < len(d.Notes):
		d.Summaries = append(d.Summaries, make([]string, len(d.Notes)-len(d.Summaries))...)
	case len(d.Summaries) > len(d.Notes):
		d.Summaries = d.Summaries[:len(d.Notes)]
	}
}

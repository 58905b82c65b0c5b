// Package notebook holds the in-memory note state: the active notes, their
// summaries, and the trash. Every method keeps the notes and summaries
// collections the same length.
//
// A Notebook is not safe for concurrent use; callers serialize access.
package notebook

import (
	"github.com/google/uuid"

	"github.com/starford/neuronote/internal/models"
)

// slot is the per-note bookkeeping that travels with a note through every
// index operation.
type slot struct {
	note    models.Note
	summary string
	token   string
	pending bool
}

// Entry is a read-only view of an active note.
type Entry struct {
	Position int         `json:"position"`
	Note     models.Note `json:"note"`
	Summary  string      `json:"summary"`
	Pending  bool        `json:"pending"`
}

// Notebook is the application state object.
type Notebook struct {
	slots []slot
	trash []models.Note
}

// New returns an empty notebook.
func New() *Notebook {
	return &Notebook{}
}

// FromDocument builds a notebook from a persisted document. Mismatched
// summary counts are repaired on a copy; doc itself is left untouched.
func FromDocument(doc *models.Document) *Notebook {
	nb := New()
	if doc == nil {
		return nb
	}
	doc = doc.Clone()
	doc.Normalize()
	nb.slots = make([]slot, len(doc.Notes))
	for i, n := range doc.Notes {
		nb.slots[i] = slot{note: n, summary: doc.Summaries[i], token: newToken()}
	}
	nb.trash = append([]models.Note(nil), doc.Trash...)
	return nb
}

// Snapshot returns a deep copy of the state in its persisted shape.
func (nb *Notebook) Snapshot() *models.Document {
	doc := &models.Document{
		Notes:     make([]models.Note, len(nb.slots)),
		Trash:     make([]models.Note, len(nb.trash)),
		Summaries: make([]string, len(nb.slots)),
	}
	for i, s := range nb.slots {
		doc.Notes[i] = s.note
		doc.Summaries[i] = s.summary
	}
	copy(doc.Trash, nb.trash)
	return doc
}

// Len returns the number of active notes.
func (nb *Notebook) Len() int { return len(nb.slots) }

// TrashLen returns the number of trashed notes.
func (nb *Notebook) TrashLen() int { return len(nb.trash) }

// Add appends a note with a blank summary and returns its position.
func (nb *Notebook) Add(n models.Note) int {
	nb.slots = append(nb.slots, slot{note: n, token: newToken()})
	return len(nb.slots) - 1
}

// Get returns the entry at position i.
func (nb *Notebook) Get(i int) (Entry, bool) {
	if !nb.inRange(i) {
		return Entry{}, false
	}
	return nb.entry(i), true
}

// Entries returns every active note in order.
func (nb *Notebook) Entries() []Entry {
	out := make([]Entry, len(nb.slots))
	for i := range nb.slots {
		out[i] = nb.entry(i)
	}
	return out
}

// Trash returns a copy of the trash collection.
func (nb *Notebook) Trash() []models.Note {
	return append([]models.Note{}, nb.trash...)
}

// Update overwrites the note at i in place and resets its summary. Any
// summary task still running for the old content is invalidated.
func (nb *Notebook) Update(i int, n models.Note) bool {
	if !nb.inRange(i) {
		return false
	}
	nb.slots[i] = slot{note: n, token: newToken()}
	return true
}

// MoveToTrash removes the note and its summary at i and appends the note to
// the trash. The summary is discarded.
func (nb *Notebook) MoveToTrash(i int) bool {
	if !nb.inRange(i) {
		return false
	}
	n := nb.slots[i].note
	nb.slots = append(nb.slots[:i], nb.slots[i+1:]...)
	nb.trash = append(nb.trash, n)
	return true
}

// Restore moves trash entry i back to the end of the notes with a blank
// summary. It returns the new note position.
func (nb *Notebook) Restore(i int) (int, bool) {
	if i < 0 || i >= len(nb.trash) {
		return 0, false
	}
	n := nb.trash[i]
	nb.trash = append(nb.trash[:i], nb.trash[i+1:]...)
	return nb.Add(n), true
}

// DeleteForever drops trash entry i.
func (nb *Notebook) DeleteForever(i int) bool {
	if i < 0 || i >= len(nb.trash) {
		return false
	}
	nb.trash = append(nb.trash[:i], nb.trash[i+1:]...)
	return true
}

// BeginSummary marks note i as being summarized and issues a fresh task
// token. The returned text is the summarizer input.
func (nb *Notebook) BeginSummary(i int) (token, text string, ok bool) {
	if !nb.inRange(i) {
		return "", "", false
	}
	s := &nb.slots[i]
	s.token = newToken()
	s.pending = true
	return s.token, s.note.Text(), true
}

// CompleteSummary stores text for the note still holding token. The note may
// have moved since BeginSummary; a token that no longer matches any note is
// ignored. It returns the position written to and the summary it replaced.
func (nb *Notebook) CompleteSummary(token, text string) (pos int, prev string, ok bool) {
	for i := range nb.slots {
		s := &nb.slots[i]
		if s.token != token || !s.pending {
			continue
		}
		prev = s.summary
		s.summary = text
		s.pending = false
		return i, prev, true
	}
	return 0, "", false
}

// RevertSummary puts prev back on the note holding token. It undoes a
// CompleteSummary whose result could not be persisted.
func (nb *Notebook) RevertSummary(token, prev string) bool {
	for i := range nb.slots {
		s := &nb.slots[i]
		if s.token == token {
			s.summary = prev
			s.pending = false
			return true
		}
	}
	return false
}

func (nb *Notebook) inRange(i int) bool {
	return i >= 0 && i < len(nb.slots)
}

func (nb *Notebook) entry(i int) Entry {
	s := nb.slots[i]
	return Entry{Position: i, Note: s.note, Summary: s.summary, Pending: s.pending}
}

func newToken() string {
	return uuid.NewString()
}

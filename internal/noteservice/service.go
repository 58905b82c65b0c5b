// Package noteservice is the controller that owns the notebook state. It
// serializes every mutation, persists after each one, keeps the search
// mirror current, and runs summaries in the background.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/neuronote/internal/apperr"
	"github.com/starford/neuronote/internal/export"
	"github.com/starford/neuronote/internal/index"
	"github.com/starford/neuronote/internal/models"
	"github.com/starford/neuronote/internal/notebook"
	"github.com/starford/neuronote/internal/parser"
	"github.com/starford/neuronote/internal/storage"
	"github.com/starford/neuronote/internal/summarizer"
)

// Event kinds passed to the EventCallback.
const (
	EventNoteCreated    = "note.created"
	EventNoteUpdated    = "note.updated"
	EventNoteTrashed    = "note.trashed"
	EventTrashRestored  = "trash.restored"
	EventTrashDeleted   = "trash.deleted"
	EventSummaryPending = "summary.pending"
	EventSummaryReady   = "summary.ready"
	EventSummaryFailed  = "summary.failed"
	EventNotesReloaded  = "notes.reloaded"
)

// EventCallback is called after a state change. position is -1 when the
// event is not tied to one note.
type EventCallback func(kind string, position int)

// Option configures a Service.
type Option func(*Service)

// WithIndex mirrors every persisted document into idx.
func WithIndex(idx index.NoteIndex) Option {
	return func(s *Service) { s.idx = idx }
}

// WithStrategy sets the summary strategy.
func WithStrategy(st *summarizer.Strategy) Option {
	return func(s *Service) { s.strategy = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers the event callback.
func WithEvents(cb EventCallback) Option {
	return func(s *Service) { s.onEvent = cb }
}

// WithLabels sets the field labels used by the text export.
func WithLabels(l export.Labels) Option {
	return func(s *Service) { s.labels = l }
}

// Service coordinates notebook state, storage, and the search index.
type Service struct {
	store    storage.Provider
	idx      index.NoteIndex
	strategy *summarizer.Strategy
	logger   *slog.Logger
	onEvent  EventCallback
	labels   export.Labels

	mu sync.Mutex
	nb *notebook.Notebook

	tasks sync.WaitGroup
}

// New loads the document from store and returns a ready service.
func New(store storage.Provider, opts ...Option) (*Service, error) {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		labels: export.DefaultLabels,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strategy == nil {
		s.strategy = summarizer.NewStrategy(summarizer.NewTextRank())
	}

	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("noteservice: load: %w", err)
	}
	s.nb = notebook.FromDocument(doc)
	s.syncIndex(s.nb.Snapshot())
	return s, nil
}

// List returns every active note with its summary state.
func (s *Service) List(_ context.Context) []notebook.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.Entries()
}

// Trash returns the trashed notes.
func (s *Service) Trash(_ context.Context) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.Trash()
}

// Document returns a snapshot of the full state.
func (s *Service) Document(_ context.Context) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.Snapshot()
}

// Get returns the note at position i.
func (s *Service) Get(_ context.Context, i int) (notebook.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nb.Get(i)
	if !ok {
		return notebook.Entry{}, apperr.ErrNotFound
	}
	return e, nil
}

// CopyText returns the note at i as "title\ncontent".
func (s *Service) CopyText(ctx context.Context, i int) (string, error) {
	e, err := s.Get(ctx, i)
	if err != nil {
		return "", err
	}
	return e.Note.Text(), nil
}

// Save appends a new note with a blank summary.
func (s *Service) Save(_ context.Context, title, content string) (notebook.Entry, error) {
	n, err := validNote(title, content)
	if err != nil {
		return notebook.Entry{}, err
	}
	var pos int
	if _, err := s.mutate(func(nb *notebook.Notebook) bool {
		pos = nb.Add(n)
		return true
	}); err != nil {
		return notebook.Entry{}, err
	}
	s.emit(EventNoteCreated, pos)
	return notebook.Entry{Position: pos, Note: n}, nil
}

// Edit overwrites the note at i and resets its summary. An out of range
// position is a no-op reported as changed=false.
func (s *Service) Edit(_ context.Context, i int, title, content string) (bool, error) {
	n, err := validNote(title, content)
	if err != nil {
		return false, err
	}
	changed, err := s.mutate(func(nb *notebook.Notebook) bool {
		return nb.Update(i, n)
	})
	if changed {
		s.emit(EventNoteUpdated, i)
	}
	return changed, err
}

// MoveToTrash moves the note at i to the trash and discards its summary.
func (s *Service) MoveToTrash(_ context.Context, i int) (bool, error) {
	changed, err := s.mutate(func(nb *notebook.Notebook) bool {
		return nb.MoveToTrash(i)
	})
	if changed {
		s.emit(EventNoteTrashed, i)
	}
	return changed, err
}

// Restore moves trash entry i back to the end of the notes. It returns the
// restored note's position.
func (s *Service) Restore(_ context.Context, i int) (int, bool, error) {
	var pos int
	changed, err := s.mutate(func(nb *notebook.Notebook) bool {
		p, ok := nb.Restore(i)
		pos = p
		return ok
	})
	if changed {
		s.emit(EventTrashRestored, pos)
	}
	return pos, changed, err
}

// DeleteForever drops trash entry i.
func (s *Service) DeleteForever(_ context.Context, i int) (bool, error) {
	changed, err := s.mutate(func(nb *notebook.Notebook) bool {
		return nb.DeleteForever(i)
	})
	if changed {
		s.emit(EventTrashDeleted, i)
	}
	return changed, err
}

// Import saves a Markdown file as a note.
func (s *Service) Import(ctx context.Context, name string, data []byte) (notebook.Entry, error) {
	title, content, err := parser.ImportNote(name, data)
	if err != nil {
		return notebook.Entry{}, fmt.Errorf("noteservice: import %s: %w", name, err)
	}
	return s.Save(ctx, title, content)
}

// Groups returns the active notes bucketed by category.
func (s *Service) Groups(_ context.Context) map[string][]models.Note {
	s.mu.Lock()
	notes := s.nb.Snapshot().Notes
	s.mu.Unlock()
	return summarizer.Group(notes)
}

// Search queries the search mirror.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return nil, errors.New("noteservice: search index disabled")
	}
	return s.idx.Search(query, limit)
}

// ExportText writes the notes as plain text into dir.
func (s *Service) ExportText(ctx context.Context, dir string) (string, error) {
	return export.Text(s.Document(ctx).Notes, dir, s.labels)
}

// ExportPDF writes the notes as a PDF document into dir.
func (s *Service) ExportPDF(ctx context.Context, dir string) (string, error) {
	return export.PDF(s.Document(ctx).Notes, dir)
}

// Ready reports whether the search mirror is reachable. A service without
// an index is always ready.
func (s *Service) Ready(_ context.Context) error {
	if s.idx == nil {
		return nil
	}
	return s.idx.Ping()
}

// Reload replaces the in-memory state with the stored document. Running
// summary tasks are orphaned and their results dropped. The lock is held
// across the read so a concurrent save cannot land between load and swap.
func (s *Service) Reload(_ context.Context) error {
	s.mu.Lock()
	doc, err := s.store.Load()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("noteservice: reload: %w", err)
	}
	s.nb = notebook.FromDocument(doc)
	s.syncIndex(s.nb.Snapshot())
	s.mu.Unlock()
	s.emit(EventNotesReloaded, -1)
	return nil
}

// mutate applies fn under the lock and persists when it reports a change.
// A failed save rolls the state back.
func (s *Service) mutate(fn func(nb *notebook.Notebook) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.nb.Snapshot()
	if !fn(s.nb) {
		return false, nil
	}
	if err := s.persistLocked(); err != nil {
		s.nb = notebook.FromDocument(prev)
		return false, err
	}
	return true, nil
}

func (s *Service) persistLocked() error {
	doc := s.nb.Snapshot()
	if err := s.store.Save(doc); err != nil {
		return fmt.Errorf("noteservice: persist: %w", err)
	}
	s.syncIndex(doc)
	return nil
}

func (s *Service) syncIndex(doc *models.Document) {
	if s.idx == nil {
		return
	}
	if err := s.idx.Sync(doc, s.store.LastChecksum()); err != nil {
		s.logger.Warn("index sync failed", slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind string, position int) {
	if s.onEvent != nil {
		s.onEvent(kind, position)
	}
}

type noteInput struct {
	Title   string
	Content string
}

func validNote(title, content string) (models.Note, error) {
	in := &noteInput{Title: title, Content: content}
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Content, validation.Required),
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return models.Note{Title: title, Content: content}, nil
}

package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/neuronote/internal/apperr"
	"github.com/starford/neuronote/internal/index"
	"github.com/starford/neuronote/internal/models"
	"github.com/starford/neuronote/internal/storage"
	"github.com/starford/neuronote/internal/summarizer"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind string, _ int) {
	r.mu.Lock()
	r.events = append(r.events, kind)
	r.mu.Unlock()
}

func (r *recorder) has(kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == kind {
			return true
		}
	}
	return false
}

func testService(t *testing.T, opts ...Option) (*Service, *storage.JSONFile) {
	t.Helper()
	store, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc, err := New(store, append([]Option{WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(svc.Wait)
	return svc, store
}

// gated returns a summarizer that blocks until release is closed.
func gated(result string) (summarizer.Summarizer, chan struct{}) {
	release := make(chan struct{})
	return summarizer.SummarizerFunc(func(string, float64) (string, error) {
		<-release
		return result, nil
	}), release
}

func loadStored(t *testing.T, store storage.Provider) *models.Document {
	t.Helper()
	fresh, err := storage.NewJSONFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := fresh.Load()
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSavePersists(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	e, err := svc.Save(ctx, "Title", "Content")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.Position != 0 {
		t.Errorf("position = %d", e.Position)
	}
	doc := loadStored(t, store)
	if len(doc.Notes) != 1 || doc.Notes[0].Title != "Title" || len(doc.Summaries) != 1 || doc.Summaries[0] != "" {
		t.Errorf("stored doc = %+v", doc)
	}
}

func TestSaveRequiresTitleAndContent(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	for _, tc := range []struct{ title, content string }{{"", "c"}, {"t", ""}, {"", ""}} {
		if _, err := svc.Save(ctx, tc.title, tc.content); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Save(%q, %q) err = %v, want ErrInvalid", tc.title, tc.content, err)
		}
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("invalid saves wrote the data file")
	}
}

func TestLifecycle(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "A", "B")
	_, _ = svc.Save(ctx, "C", "D")

	if changed, err := svc.MoveToTrash(ctx, 0); !changed || err != nil {
		t.Fatalf("MoveToTrash = %v, %v", changed, err)
	}
	doc := loadStored(t, store)
	if len(doc.Notes) != 1 || len(doc.Trash) != 1 || doc.Trash[0].Title != "A" {
		t.Fatalf("after trash: %+v", doc)
	}

	pos, changed, err := svc.Restore(ctx, 0)
	if !changed || err != nil || pos != 1 {
		t.Fatalf("Restore = %d, %v, %v", pos, changed, err)
	}
	doc = loadStored(t, store)
	if len(doc.Notes) != 2 || doc.Notes[1].Title != "A" || len(doc.Trash) != 0 {
		t.Fatalf("after restore: %+v", doc)
	}

	_, _ = svc.MoveToTrash(ctx, 0)
	if changed, err := svc.DeleteForever(ctx, 0); !changed || err != nil {
		t.Fatalf("DeleteForever = %v, %v", changed, err)
	}
	doc = loadStored(t, store)
	if len(doc.Notes) != 1 || len(doc.Trash) != 0 || len(doc.Summaries) != 1 {
		t.Fatalf("after delete forever: %+v", doc)
	}
}

func TestOutOfRangeIsNoop(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if changed, err := svc.MoveToTrash(ctx, 3); changed || err != nil {
		t.Errorf("MoveToTrash = %v, %v", changed, err)
	}
	if _, changed, err := svc.Restore(ctx, 0); changed || err != nil {
		t.Errorf("Restore = %v, %v", changed, err)
	}
	if changed, err := svc.DeleteForever(ctx, -1); changed || err != nil {
		t.Errorf("DeleteForever = %v, %v", changed, err)
	}
	if changed, err := svc.Edit(ctx, 0, "t", "c"); changed || err != nil {
		t.Errorf("Edit = %v, %v", changed, err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("no-op wrote the data file")
	}
}

func TestEditResetsSummary(t *testing.T) {
	svc, store := testService(t, WithStrategy(summarizer.NewStrategy(
		summarizer.SummarizerFunc(func(string, float64) (string, error) {
			return "a summary that is certainly longer than forty runes", nil
		}))))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "t", "c")

	task, err := svc.Summarize(ctx, 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if _, applied, _ := task.Wait(ctx); !applied {
		t.Fatal("summary not applied")
	}
	if doc := loadStored(t, store); doc.Summaries[0] == "" {
		t.Fatal("summary not persisted")
	}

	if changed, err := svc.Edit(ctx, 0, "t2", "c2"); !changed || err != nil {
		t.Fatalf("Edit = %v, %v", changed, err)
	}
	doc := loadStored(t, store)
	if doc.Summaries[0] != "" || doc.Notes[0].Content != "c2" {
		t.Errorf("after edit: %+v", doc)
	}
}

func TestSummarize_PendingThenReady(t *testing.T) {
	s, release := gated("the finished summary, long enough to keep as is")
	rec := &recorder{}
	svc, _ := testService(t, WithStrategy(summarizer.NewStrategy(s)), WithEvents(rec.record))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "t", "c")

	task, err := svc.Summarize(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := svc.Get(ctx, 0)
	if !e.Pending || e.Summary != "" {
		t.Errorf("entry while running = %+v", e)
	}
	if !rec.has(EventSummaryPending) {
		t.Error("missing summary.pending event")
	}

	close(release)
	summary, applied, err := task.Wait(ctx)
	if err != nil || !applied {
		t.Fatalf("Wait = %q, %v, %v", summary, applied, err)
	}
	e, _ = svc.Get(ctx, 0)
	if e.Pending || e.Summary != "the finished summary, long enough to keep as is" {
		t.Errorf("entry after = %+v", e)
	}
	if !rec.has(EventSummaryReady) {
		t.Error("missing summary.ready event")
	}
}

// failingStore wraps a JSONFile and fails Save once fail is set.
type failingStore struct {
	*storage.JSONFile
	fail atomic.Bool
}

func (f *failingStore) Save(doc *models.Document) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	return f.JSONFile.Save(doc)
}

func TestSummarize_PersistFailureRollsBack(t *testing.T) {
	file, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	store := &failingStore{JSONFile: file}
	s, release := gated("a long enough summary that would normally be stored")
	rec := &recorder{}
	svc, err := New(store,
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		WithStrategy(summarizer.NewStrategy(s)),
		WithEvents(rec.record))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(svc.Wait)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "t", "c")

	task, err := svc.Summarize(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	store.fail.Store(true)
	close(release)

	_, applied, err := task.Wait(ctx)
	if err == nil || applied {
		t.Fatalf("Wait applied = %v, err = %v, want an error", applied, err)
	}
	e, _ := svc.Get(ctx, 0)
	if e.Summary != "" || e.Pending {
		t.Errorf("entry = %+v, want blank summary and not pending", e)
	}
	if doc := loadStored(t, file); doc.Summaries[0] != "" {
		t.Errorf("stored summary = %q", doc.Summaries[0])
	}
	if rec.has(EventSummaryReady) || !rec.has(EventSummaryFailed) {
		t.Errorf("events = %v", rec.events)
	}
}

func TestReloadLeavesConcurrentSaves(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "base", "c")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Save(ctx, "t", "c")
		}()
		go func() {
			defer wg.Done()
			_ = svc.Reload(ctx)
		}()
	}
	wg.Wait()

	if got, stored := len(svc.List(ctx)), len(loadStored(t, store).Notes); got != 21 || stored != 21 {
		t.Errorf("memory = %d notes, disk = %d, want 21 both", got, stored)
	}
}

func TestSummarize_StaleResultDropped(t *testing.T) {
	s, release := gated("stale summary text that is long enough to be kept")
	svc, store := testService(t, WithStrategy(summarizer.NewStrategy(s)))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "t", "c")

	task, _ := svc.Summarize(ctx, 0)
	_, _ = svc.Edit(ctx, 0, "t", "edited while summarizing")
	close(release)

	if _, applied, _ := task.Wait(ctx); applied {
		t.Error("stale summary applied")
	}
	if doc := loadStored(t, store); doc.Summaries[0] != "" {
		t.Errorf("stored summary = %q, want blank", doc.Summaries[0])
	}
}

func TestSummarize_FollowsShiftedNote(t *testing.T) {
	s, release := gated("summary for the second note, long enough to keep")
	svc, _ := testService(t, WithStrategy(summarizer.NewStrategy(s)))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "first", "x")
	_, _ = svc.Save(ctx, "second", "y")

	task, _ := svc.Summarize(ctx, 1)
	_, _ = svc.MoveToTrash(ctx, 0)
	close(release)
	_, _, _ = task.Wait(ctx)

	e, _ := svc.Get(ctx, 0)
	if e.Note.Title != "second" || e.Summary == "" {
		t.Errorf("entry = %+v", e)
	}
}

func TestSummarize_OutOfRange(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.Summarize(context.Background(), 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSummarize_DefaultStrategy(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "Yapay zeka", "Günümüzde birçok alanda kullanılmaktadır. Eğitimde önemlidir.")
	task, _ := svc.Summarize(ctx, 0)
	summary, applied, _ := task.Wait(ctx)
	if !applied || summary == "" {
		t.Errorf("summary = %q, applied = %v", summary, applied)
	}
}

func TestTaskWaitHonoursContext(t *testing.T) {
	s, release := gated("late")
	defer close(release)
	svc, _ := testService(t, WithStrategy(summarizer.NewStrategy(s)))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "t", "c")
	task, _ := svc.Summarize(ctx, 0)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, _, err := task.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestCopyText(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "Title", "Body")
	text, err := svc.CopyText(ctx, 0)
	if err != nil || text != "Title\nBody" {
		t.Errorf("CopyText = %q, %v", text, err)
	}
	if _, err := svc.CopyText(ctx, 4); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadsExistingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	_ = os.WriteFile(path, []byte(`{"notes":[{"title":"A","content":"B"}],"trash":[],"summaries":["S"]}`), 0o644)
	store, _ := storage.NewJSONFile(path)
	svc, err := New(store)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := svc.Get(context.Background(), 0)
	if e.Note.Title != "A" || e.Summary != "S" {
		t.Errorf("entry = %+v", e)
	}
}

func TestReload(t *testing.T) {
	rec := &recorder{}
	svc, store := testService(t, WithEvents(rec.record))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "A", "B")

	other, _ := storage.NewJSONFile(store.Path())
	_ = other.Save(&models.Document{
		Notes:     []models.Note{{Title: "X", Content: "Y"}, {Title: "Z", Content: "W"}},
		Summaries: []string{"", ""},
	})

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := len(svc.List(ctx)); got != 2 {
		t.Errorf("len = %d, want 2", got)
	}
	if !rec.has(EventNotesReloaded) {
		t.Error("missing notes.reloaded event")
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "A", "B")

	// Replace the parent directory with a file so the next write fails.
	dir := filepath.Dir(store.Path())
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(dir) })

	if _, err := svc.Save(ctx, "C", "D"); err == nil {
		t.Fatal("expected persist error")
	}
	if got := len(svc.List(ctx)); got != 1 {
		t.Errorf("len = %d after failed save, want 1", got)
	}
}

func TestImportAndGroups(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	if _, err := svc.Import(ctx, "plan.md", []byte("# Plan\nship it #work\n")); err != nil {
		t.Fatalf("Import: %v", err)
	}
	_, _ = svc.Save(ctx, "misc", "nothing tagged")

	e, _ := svc.Get(ctx, 0)
	if e.Note.Title != "Plan" || e.Note.Content != "ship it #work" {
		t.Errorf("imported = %+v", e.Note)
	}
	g := svc.Groups(ctx)
	if len(g["work"]) != 1 || len(g[summarizer.DefaultCategory]) != 1 {
		t.Errorf("groups = %v", g)
	}
}

func TestSearchUsesIndex(t *testing.T) {
	f, err := os.CreateTemp("", "neuronote-svc-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc, _ := testService(t, WithIndex(db))
	ctx := context.Background()
	_, _ = svc.Save(ctx, "Findable", "needle in here")

	results, err := svc.Search(ctx, "needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Findable" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.Search(context.Background(), "x", 1); err == nil {
		t.Error("expected error without index")
	}
}

func TestExport(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	dir := t.TempDir()
	if _, err := svc.ExportText(ctx, dir); !errors.Is(err, apperr.ErrNoNotes) {
		t.Errorf("empty export err = %v", err)
	}
	_, _ = svc.Save(ctx, "A", "B")
	out, err := svc.ExportText(ctx, dir)
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("export file missing: %v", err)
	}
	if _, err := svc.ExportPDF(ctx, dir); err != nil {
		t.Errorf("ExportPDF: %v", err)
	}
}

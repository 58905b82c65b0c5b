package noteservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/neuronote/internal/apperr"
)

// Task is a running summary job. Position is where the note was when the
// task started.
type Task struct {
	Token    string
	Position int

	done    chan struct{}
	summary string
	applied bool
	err     error
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx is done. applied reports
// whether the summary was stored; it is false when the note was edited,
// trashed, or reloaded while the task ran. A summary that could not be
// persisted is rolled back and its error returned.
func (t *Task) Wait(ctx context.Context) (summary string, applied bool, err error) {
	select {
	case <-t.done:
		return t.summary, t.applied, t.err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Summarize starts summarizing the note at i in the background. The result
// is written back only if the note still holds the task's token.
func (s *Service) Summarize(_ context.Context, i int) (*Task, error) {
	s.mu.Lock()
	token, text, ok := s.nb.BeginSummary(i)
	s.mu.Unlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}

	task := &Task{Token: token, Position: i, done: make(chan struct{})}
	s.emit(EventSummaryPending, i)

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(task.done)
		s.runSummary(task, text)
	}()
	return task, nil
}

func (s *Service) runSummary(task *Task, text string) {
	start := time.Now()
	summary, source := s.strategy.Summarize(text)
	task.summary = summary

	s.mu.Lock()
	pos, prev, ok := s.nb.CompleteSummary(task.Token, summary)
	var err error
	if ok {
		if err = s.persistLocked(); err != nil {
			s.nb.RevertSummary(task.Token, prev)
		}
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("summary discarded, note changed",
			slog.String("token", task.Token),
			slog.Int("position", task.Position))
		return
	}
	if err != nil {
		task.err = err
		s.logger.Error("persist summary failed", slog.Int("position", pos), slog.String("error", err.Error()))
		s.emit(EventSummaryFailed, pos)
		return
	}
	task.applied = true
	s.logger.Info("note summarized",
		slog.Int("position", pos),
		slog.String("source", string(source)),
		slog.Duration("took", time.Since(start)))
	s.emit(EventSummaryReady, pos)
}

// Wait blocks until every background summary has finished.
func (s *Service) Wait() {
	s.tasks.Wait()
}

// Close waits for background work.
func (s *Service) Close() error {
	s.Wait()
	return nil
}

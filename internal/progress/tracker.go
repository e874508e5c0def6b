package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

// Tracker owns the in-memory progress record. It is loaded once and every
// completion is written back through the repository.
type Tracker struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu             sync.RWMutex
	progress       *domain.UserProgress
	writeFailed    bool
	lastPersistErr error
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLogger sets the logger used for persistence problems
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker loads the stored record. A missing or unreadable record yields
// fresh defaults; it never fails.
func NewTracker(ctx context.Context, repo Repository, opts ...Option) *Tracker {
	t := &Tracker{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	p, err := repo.Load(ctx)
	switch {
	case err == nil:
		t.progress = p
	case errors.Is(err, domain.ErrProgressNotFound):
		t.progress = domain.NewUserProgress(t.now())
	default:
		t.logger.Warn("progress unreadable, starting fresh", "error", err)
		t.progress = domain.NewUserProgress(t.now())
	}
	return t
}

// Snapshot returns a copy of the current record
func (t *Tracker) Snapshot() *domain.UserProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress.Clone()
}

// IsCompleted reports whether the challenge id has been completed
func (t *Tracker) IsCompleted(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress.IsCompleted(id)
}

// Complete records a passed challenge and persists the whole record. It
// reports whether the id was new. Completions another process stored since
// the last load are merged in before writing. A write failure is returned but
// the in-memory record keeps the completion; the failure is logged once until
// a later write succeeds.
func (t *Tracker) Complete(ctx context.Context, c *domain.Challenge) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refresh(ctx)
	added := t.progress.MarkCompleted(c)

	err := t.repo.Save(ctx, t.progress)
	t.lastPersistErr = err
	if err != nil {
		if !t.writeFailed {
			t.logger.Error("failed to save progress", "challenge", c.ID, "error", err)
		}
		t.writeFailed = true
		return added, err
	}
	if t.writeFailed {
		t.logger.Info("progress saved after earlier failure")
	}
	t.writeFailed = false
	return added, nil
}

// Customize replaces the cosmetic settings and persists the record
func (t *Tracker) Customize(ctx context.Context, c *domain.Customization) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refresh(ctx)
	t.progress.Customization = c
	err := t.repo.Save(ctx, t.progress)
	t.lastPersistErr = err
	return err
}

// refresh merges the stored record into memory. Callers hold t.mu.
func (t *Tracker) refresh(ctx context.Context) {
	stored, err := t.repo.Load(ctx)
	switch {
	case err == nil:
		t.progress.Merge(stored)
	case !errors.Is(err, domain.ErrProgressNotFound):
		t.logger.Debug("stored progress not merged", "error", err)
	}
}

// LastPersistError returns the error from the most recent write, if any
func (t *Tracker) LastPersistError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastPersistErr
}

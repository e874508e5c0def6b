package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/curriculum"
	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/metrics"
	"github.com/felixgeelhaar/masterylab/internal/progress"
)

// Service drives challenge sessions. Transitions are serialized by a mutex
// that is released while an evaluation is in flight; the evaluating state
// blocks conflicting transitions in the meantime.
type Service struct {
	mu        sync.Mutex
	store     *Store
	catalog   *curriculum.Catalog
	tracker   *progress.Tracker
	evaluator Evaluator
	notifier  CompletionNotifier // Optional: publishes completion events
	metrics   *metrics.Metrics   // Optional
	logger    *slog.Logger
}

// NewService creates a new session service
func NewService(catalog *curriculum.Catalog, tracker *progress.Tracker, evaluator Evaluator) *Service {
	return &Service{
		store:     NewStore(),
		catalog:   catalog,
		tracker:   tracker,
		evaluator: evaluator,
		logger:    slog.Default(),
	}
}

// SetNotifier sets the receiver of completion notifications
func (s *Service) SetNotifier(n CompletionNotifier) {
	s.notifier = n
}

// SetMetrics sets the metrics collectors
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetLogger sets the logger
func (s *Service) SetLogger(l *slog.Logger) {
	s.logger = l
}

// unlocked returns the challenge if it exists and is selectable
func (s *Service) unlocked(challengeID string) (*domain.Challenge, error) {
	c, err := s.catalog.Get(challengeID)
	if err != nil {
		return nil, err
	}
	if !curriculum.IsUnlocked(c, s.tracker.Snapshot()) {
		return nil, domain.ErrChallengeLocked
	}
	return c, nil
}

// view renders a session with its challenge content
func (s *Service) view(sess *Session) *Session {
	c, _ := s.catalog.Get(sess.ChallengeID)
	return sess.View(c)
}

// Create starts a session on an unlocked challenge
func (s *Service) Create(ctx context.Context, challengeID string) (*Session, error) {
	c, err := s.unlocked(challengeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := NewSession(c)
	s.store.Save(sess)
	s.metrics.SetActiveSessions(s.store.Count())

	s.logger.Debug("session created", "session_id", sess.ID, "challenge", c.ID)
	return s.view(sess), nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// List returns every session
func (s *Service) List(ctx context.Context) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.store.List()
	out := make([]*Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.view(sess))
	}
	return out
}

// Delete removes a session. An evaluation still in flight finishes but its
// verdict is only returned to the submitter.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.metrics.SetActiveSessions(s.store.Count())
	return nil
}

// Select switches the session to another challenge, resetting all working
// state. It is refused while an evaluation is in flight.
func (s *Service) Select(ctx context.Context, id, challengeID string) (*Session, error) {
	c, err := s.unlocked(challengeID)
	if err != nil {
		return nil, err
	}

	return s.update(id, func(sess *Session) error {
		if sess.IsEvaluating() {
			return domain.ErrEvaluationInFlight
		}
		sess.Select(c)
		return nil
	})
}

// RevealNextHint shows one more hint; a no-op once all are shown
func (s *Service) RevealNextHint(ctx context.Context, id string) (*Session, error) {
	return s.update(id, func(sess *Session) error {
		sess.RevealNextHint()
		return nil
	})
}

// ToggleSolution flips the reference solution panel
func (s *Service) ToggleSolution(ctx context.Context, id string) (*Session, error) {
	return s.update(id, func(sess *Session) error {
		sess.ToggleSolution()
		return nil
	})
}

// ToggleNarrative flips the meta-narrative panel
func (s *Service) ToggleNarrative(ctx context.Context, id string) (*Session, error) {
	return s.update(id, func(sess *Session) error {
		sess.ToggleNarrative()
		return nil
	})
}

// EditBuffer replaces the editor buffer. It is refused while an evaluation
// is in flight.
func (s *Service) EditBuffer(ctx context.Context, id, code string) (*Session, error) {
	return s.update(id, func(sess *Session) error {
		if sess.IsEvaluating() {
			return domain.ErrEvaluationInFlight
		}
		sess.Edit(code)
		return nil
	})
}

// Submit evaluates the current buffer. On PASS the challenge is recorded as
// completed and progress is persisted; a persistence failure is reported on
// the session without undoing the verdict.
func (s *Service) Submit(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	sess, err := s.store.Get(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sess.IsEvaluating() {
		s.mu.Unlock()
		return nil, domain.ErrEvaluationInFlight
	}
	c, err := s.catalog.Get(sess.ChallengeID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	code := sess.Buffer
	sess.BeginEvaluation()
	s.mu.Unlock()

	start := time.Now()
	fb := s.evaluator.Evaluate(ctx, c, code)
	s.metrics.ObserveEvaluation(string(fb.Verdict), string(fb.Diagnostic), time.Since(start))

	var persistErr error
	if fb.Passed() {
		persistErr = s.complete(ctx, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.FinishEvaluation(fb, persistErr)

	s.logger.Info("submission evaluated",
		"session_id", sess.ID,
		"challenge", c.ID,
		"verdict", fb.Verdict,
		"duration", time.Since(start))
	return s.view(sess), nil
}

// complete records the pass and notifies listeners of a first completion
func (s *Service) complete(ctx context.Context, c *domain.Challenge) error {
	added, persistErr := s.tracker.Complete(ctx, c)
	if !added {
		return persistErr
	}

	s.metrics.ObserveCompletion()
	if s.notifier != nil {
		if err := s.notifier.ChallengeCompleted(ctx, c, s.tracker.Snapshot()); err != nil {
			s.logger.Warn("failed to publish completion", "challenge", c.ID, "error", err)
		}
	}
	return persistErr
}

// update applies fn to a session under the lock and returns its view
func (s *Service) update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

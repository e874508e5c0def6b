package session

import (
	"slices"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/google/uuid"
)

// State is the lifecycle position of a session's current submission
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateEvaluated  State = "evaluated"
)

// Session is the transient working state for one selected challenge. It is
// reset whenever a different challenge is selected.
type Session struct {
	ID               string           `json:"id"`
	ChallengeID      string           `json:"challenge_id"`
	Buffer           string           `json:"buffer"`
	HintsRevealed    int              `json:"hints_revealed"`
	TotalHints       int              `json:"total_hints"`
	SolutionVisible  bool             `json:"solution_visible"`
	NarrativeVisible bool             `json:"narrative_visible"`
	State            State            `json:"state"`
	Feedback         *domain.Feedback `json:"feedback,omitempty"`

	// PersistError is set when a passed submission could not be written to
	// the progress store. The completion still counts for this process.
	PersistError string `json:"persist_error,omitempty"`

	// Views filled from the challenge when the matching panel is open
	Hints         []string `json:"hints"`
	Solution      string   `json:"solution,omitempty"`
	MetaNarrative string   `json:"meta_narrative,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session with c selected
func NewSession(c *domain.Challenge) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	s.Select(c)
	return s
}

// Select resets the session onto c: starter code in the buffer, no hints,
// solution and narrative hidden, no feedback.
func (s *Session) Select(c *domain.Challenge) {
	s.ChallengeID = c.ID
	s.Buffer = c.StarterCode
	s.HintsRevealed = 0
	s.TotalHints = len(c.Hints)
	s.SolutionVisible = false
	s.NarrativeVisible = false
	s.State = StateIdle
	s.Feedback = nil
	s.PersistError = ""
	s.touch()
}

// RevealNextHint shows one more hint. Once every hint is shown it does
// nothing.
func (s *Session) RevealNextHint() {
	if s.HintsRevealed >= s.TotalHints {
		return
	}
	s.HintsRevealed++
	s.touch()
}

// ToggleSolution flips the reference solution panel
func (s *Session) ToggleSolution() {
	s.SolutionVisible = !s.SolutionVisible
	s.touch()
}

// ToggleNarrative flips the meta-narrative panel
func (s *Session) ToggleNarrative() {
	s.NarrativeVisible = !s.NarrativeVisible
	s.touch()
}

// Edit replaces the buffer verbatim
func (s *Session) Edit(code string) {
	s.Buffer = code
	s.touch()
}

// IsEvaluating reports whether a submission is in flight
func (s *Session) IsEvaluating() bool {
	return s.State == StateEvaluating
}

// BeginEvaluation moves the session into the evaluating state
func (s *Session) BeginEvaluation() {
	s.State = StateEvaluating
	s.Feedback = nil
	s.PersistError = ""
	s.touch()
}

// FinishEvaluation records the verdict
func (s *Session) FinishEvaluation(fb domain.Feedback, persistErr error) {
	s.State = StateEvaluated
	s.Feedback = &fb
	if persistErr != nil {
		s.PersistError = persistErr.Error()
	}
	s.touch()
}

// View returns a copy with the visible challenge content filled in
func (s *Session) View(c *domain.Challenge) *Session {
	out := *s
	if s.Feedback != nil {
		fb := *s.Feedback
		out.Feedback = &fb
	}
	out.Hints = []string{}
	if c != nil {
		out.Hints = slices.Clone(c.Hints[:min(s.HintsRevealed, len(c.Hints))])
		if s.SolutionVisible {
			out.Solution = c.Solution
		}
		if s.NarrativeVisible {
			out.MetaNarrative = c.MetaNarrative
		}
	}
	return &out
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

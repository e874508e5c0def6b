package session

import (
	"context"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

// SessionService defines the session operations used by the daemon handlers
// and the MCP tools
type SessionService interface {
	// Create starts a session on an unlocked challenge
	Create(ctx context.Context, challengeID string) (*Session, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// Select switches the session to another unlocked challenge
	Select(ctx context.Context, id, challengeID string) (*Session, error)

	// RevealNextHint shows one more hint of the selected challenge
	RevealNextHint(ctx context.Context, id string) (*Session, error)

	// ToggleSolution flips the reference solution panel
	ToggleSolution(ctx context.Context, id string) (*Session, error)

	// ToggleNarrative flips the meta-narrative panel
	ToggleNarrative(ctx context.Context, id string) (*Session, error)

	// EditBuffer replaces the editor buffer
	EditBuffer(ctx context.Context, id, code string) (*Session, error)

	// Submit evaluates the buffer and records a pass
	Submit(ctx context.Context, id string) (*Session, error)
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)

// Evaluator grades a submission. Implementations never fail; transport
// problems are reported as an ERROR verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, c *domain.Challenge, code string) domain.Feedback
}

// CompletionNotifier is told about newly completed challenges
type CompletionNotifier interface {
	ChallengeCompleted(ctx context.Context, c *domain.Challenge, p *domain.UserProgress) error
}

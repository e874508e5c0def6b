package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Curriculum errors
var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrInvalidChallenge   = errors.New("invalid challenge")
	ErrDuplicateChallenge = errors.New("duplicate challenge id")
	ErrPrerequisiteCycle  = errors.New("prerequisite cycle")
)

// Progress errors
var (
	ErrProgressNotFound = errors.New("progress not found")
)

// Session errors
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrChallengeLocked    = errors.New("challenge is locked")
	ErrEvaluationInFlight = errors.New("evaluation in progress")
)

package evaluation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/llm"
)

// FallbackMessage is shown for every ERROR verdict
const FallbackMessage = "Could not validate. Check your code and try again."

// Evaluator grades submissions with a text generation provider
type Evaluator struct {
	provider  llm.Provider
	model     string
	maxTokens int
	logger    *slog.Logger
}

// Config holds the request settings sent with every evaluation
type Config struct {
	Model     string
	MaxTokens int
	Logger    *slog.Logger
}

// NewEvaluator creates an evaluator. The provider is expected to carry its
// own timeout and retry policy (see llm.ResilientProvider).
func NewEvaluator(provider llm.Provider, cfg Config) *Evaluator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Evaluator{
		provider:  provider,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
}

// Evaluate grades code against the challenge. It never fails: any provider
// error becomes an ERROR verdict with a diagnostic.
func (e *Evaluator) Evaluate(ctx context.Context, c *domain.Challenge, code string) domain.Feedback {
	resp, err := e.provider.Generate(ctx, &llm.Request{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(c, code)},
		},
	})
	if err != nil {
		fb := ErrorFeedback(err)
		e.logger.Warn("evaluation failed",
			"challenge", c.ID,
			"provider", e.provider.Name(),
			"diagnostic", fb.Diagnostic,
			"error", err)
		return fb
	}
	return ParseVerdict(resp.Content)
}

// ErrorFeedback builds the ERROR verdict for a provider failure
func ErrorFeedback(err error) domain.Feedback {
	return domain.Feedback{
		Verdict:    domain.VerdictError,
		Headline:   domain.VerdictError.Headline(),
		Message:    FallbackMessage,
		Diagnostic: Classify(err),
		Detail:     err.Error(),
	}
}

// Classify maps a provider error to a diagnostic: malformed for replies that
// could not be read, service for non-success statuses and configuration
// problems, network for everything else. While the circuit breaker is open
// the failure that tripped it decides.
func Classify(err error) domain.Diagnostic {
	var unavailable *llm.UnavailableError
	if errors.As(err, &unavailable) && unavailable.Cause != nil {
		return Classify(unavailable.Cause)
	}

	var apiErr *llm.APIError
	switch {
	case errors.Is(err, llm.ErrMalformedResponse):
		return domain.DiagnosticMalformed
	case errors.As(err, &apiErr), errors.Is(err, llm.ErrNoAPIKey),
		errors.Is(err, llm.ErrUnavailable), errors.Is(err, llm.ErrRateLimited):
		return domain.DiagnosticService
	default:
		return domain.DiagnosticNetwork
	}
}

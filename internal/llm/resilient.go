package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

var (
	// ErrTimeout is returned when a single attempt exceeds its deadline
	ErrTimeout = errors.New("request timed out")

	// ErrUnavailable is returned while the circuit breaker rejects calls
	ErrUnavailable = errors.New("provider unavailable")

	// ErrRateLimited is returned when submissions arrive faster than the
	// configured rate
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UnavailableError is returned while the circuit breaker rejects calls. Cause
// is the last failure the provider itself returned, so callers can still tell
// a network outage from a failing service.
type UnavailableError struct {
	Reason error
	Cause  error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", ErrUnavailable, e.Reason)
	}
	return fmt.Sprintf("%s: %v (last failure: %v)", ErrUnavailable, e.Reason, e.Cause)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// ResilientProvider wraps a provider with a per-attempt timeout, a bounded
// retry on transient failures, a circuit breaker and optional concurrency and
// rate limits, using fortify.
type ResilientProvider struct {
	provider       Provider
	circuitBreaker circuitbreaker.CircuitBreaker[*Response]
	retrier        retry.Retry[*Response]
	bulkhead       bulkhead.Bulkhead[*Response]
	rateLimit      ratelimit.RateLimiter
	timeout        time.Duration
	logger         *slog.Logger

	mu          sync.Mutex
	lastFailure error
}

// ResilientConfig holds configuration for the resilient provider wrapper
type ResilientConfig struct {
	// Timeout bounds each attempt (default: 30s)
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a transient
	// failure. Values above 1 are clamped to 1.
	MaxRetries int

	// RetryDelay is the pause before the retry (default: 1s)
	RetryDelay time.Duration

	// EnableCircuitBreaker stops calling a provider that keeps failing
	EnableCircuitBreaker bool

	// MaxConcurrent caps in-flight calls; 0 disables the bulkhead
	MaxConcurrent int

	// RatePerSecond caps new evaluations per second; 0 disables the limit
	RatePerSecond int

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns the defaults used for evaluation calls
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Timeout:              30 * time.Second,
		MaxRetries:           1,
		RetryDelay:           time.Second,
		EnableCircuitBreaker: true,
		MaxConcurrent:        5,
		RatePerSecond:        2,
	}
}

// NewResilientProvider wraps a provider with resilience patterns using fortify
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetries > 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rp := &ResilientProvider{
		provider: provider,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}

	if cfg.EnableCircuitBreaker {
		rp.circuitBreaker = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				rp.logger.Warn("circuit breaker state change",
					"provider", provider.Name(),
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.MaxRetries > 0 {
		rp.retrier = retry.New[*Response](retry.Config{
			MaxAttempts:   1 + cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			MaxDelay:      cfg.RetryDelay,
			Multiplier:    1.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        false,
			IsRetryable:   IsTransient,
		})
	}

	if cfg.MaxConcurrent > 0 {
		rp.bulkhead = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxQueue:      cfg.MaxConcurrent * 2,
			QueueTimeout:  cfg.Timeout,
		})
	}

	if cfg.RatePerSecond > 0 {
		rp.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 3,
			Interval: time.Second,
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

// Generate runs the request with the configured timeout, retry and breaker.
// The returned error is the one produced by the last attempt, so callers can
// classify it with errors.Is and errors.As.
func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.rateLimit != nil && !p.rateLimit.Allow(ctx, p.provider.Name()) {
		return nil, fmt.Errorf("%w for provider %s", ErrRateLimited, p.provider.Name())
	}

	var (
		lastErr  error
		attempts int
	)

	attempt := func(ctx context.Context) (*Response, error) {
		attempts++
		actx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		resp, err := p.provider.Generate(actx, req)
		if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, p.timeout, err)
		}
		if err != nil && attempts == 1 && p.retrier != nil && IsTransient(err) {
			p.logger.Warn("llm attempt failed, retrying", "provider", p.provider.Name(), "error", err)
		}
		lastErr = err
		return resp, err
	}

	if p.bulkhead != nil {
		single := attempt
		attempt = func(ctx context.Context) (*Response, error) {
			return p.bulkhead.Execute(ctx, single)
		}
	}

	operation := attempt
	if p.retrier != nil {
		operation = func(ctx context.Context) (*Response, error) {
			return p.retrier.Do(ctx, attempt)
		}
	}

	var (
		resp *Response
		err  error
	)
	if p.circuitBreaker != nil {
		resp, err = p.circuitBreaker.Execute(ctx, operation)
	} else {
		resp, err = operation(ctx)
	}

	if err == nil {
		p.recordFailure(nil)
		return resp, nil
	}
	if attempts == 0 {
		return nil, &UnavailableError{Reason: err, Cause: p.lastFailureErr()}
	}
	if lastErr != nil {
		err = lastErr
	}
	p.recordFailure(err)
	return nil, err
}

func (p *ResilientProvider) recordFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastFailure = err
}

func (p *ResilientProvider) lastFailureErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFailure
}

// IsTransient reports whether err is worth one more attempt: timeouts,
// network failures and 429/5xx statuses. Malformed replies, missing
// credentials, an open breaker, other statuses and caller cancellation are
// not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrNoAPIKey) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

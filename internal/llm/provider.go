package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse is returned when the service answered but the
	// body could not be decoded or carried no text content.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoAPIKey is returned when a request is attempted without credentials
	ErrNoAPIKey = errors.New("no API key configured")
)

// Provider defines the interface for text generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate performs a completion request
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a completion request
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
	System    string
}

// Message represents a chat message
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response represents a completion. Content is the first text block of
// the reply.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// APIError is a non-success HTTP status from the service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	// 529 overloaded
	return e.StatusCode == 529
}

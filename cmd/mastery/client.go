package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client talks to the masteryd HTTP API
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx reply from the daemon
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *apiError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// healthy reports whether the daemon answers its health check
func (c *client) healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/v1/health", nil, nil) == nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Response shapes used by the commands

type challenge struct {
	ID                 string   `json:"id"`
	Week               int      `json:"week"`
	Day                int      `json:"day"`
	Title              string   `json:"title"`
	Subtitle           string   `json:"subtitle"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	EstimatedTime      int      `json:"estimatedTime"`
	Concept            string   `json:"concept"`
	Description        string   `json:"description"`
	LearningObjective  string   `json:"learningObjective"`
	StarterCode        string   `json:"starterCode"`
	RealWorldUse       string   `json:"realWorldUse"`
	AICollaborationTip string   `json:"aiCollaborationTip"`
	Requires           []string `json:"requires"`
	Unlocks            []string `json:"unlocks"`
	State              string   `json:"state"`
	HintCount          int      `json:"hintCount"`
}

type weekProgress struct {
	Week       int `json:"week"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type curriculumResponse struct {
	Challenges []challenge    `json:"challenges"`
	Weeks      []weekProgress `json:"weeks"`
	Overall    int            `json:"overall"`
}

type progressResponse struct {
	Progress struct {
		CompletedChallenges []string  `json:"completedChallenges"`
		StartedAt           time.Time `json:"startedAt"`
	} `json:"progress"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	Overall      int    `json:"overall"`
	Next         string `json:"next,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
}

type feedback struct {
	Verdict    string `json:"verdict"`
	Headline   string `json:"headline"`
	Message    string `json:"message"`
	Diagnostic string `json:"diagnostic,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type sessionResponse struct {
	ID           string    `json:"id"`
	ChallengeID  string    `json:"challenge_id"`
	State        string    `json:"state"`
	Feedback     *feedback `json:"feedback,omitempty"`
	PersistError string    `json:"persist_error,omitempty"`
}

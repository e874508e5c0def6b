package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/felixgeelhaar/masterylab/internal/curriculum"
	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/progress"
	"github.com/felixgeelhaar/masterylab/internal/session"
)

// Server exposes the lab to MCP clients such as editors and agents
type Server struct {
	mcpServer *server.Server
	sessions  session.SessionService
	catalog   *curriculum.Catalog
	tracker   *progress.Tracker
}

// Config contains configuration for the MCP server
type Config struct {
	Sessions session.SessionService
	Catalog  *curriculum.Catalog
	Tracker  *progress.Tracker
	Version  string
}

// NewServer creates a new MCP server for the lab
func NewServer(cfg Config) *Server {
	s := &Server{
		sessions: cfg.Sessions,
		catalog:  cfg.Catalog,
		tracker:  cfg.Tracker,
	}

	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "mastery",
		Version: version,
	}, server.WithInstructions(`
Mastery Lab is a two-week curriculum of coding challenges. A challenge opens
once all the challenges it requires are completed.

Available tools:
- mastery_curriculum: List challenges with their locked/available/completed state
- mastery_select: Start a session on a challenge, or switch an existing one
- mastery_hint: Reveal the next hint for the session's challenge
- mastery_solution: Show or hide the reference solution
- mastery_submit: Submit code for evaluation; a PASS completes the challenge
- mastery_progress: Show completion per week and the next challenge
`))

	s.registerTools()

	return s
}

// registerTools registers all lab MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("mastery_curriculum").
		Description("List challenges, optionally for one week, with their state.").
		Handler(s.handleCurriculum)

	s.mcpServer.Tool("mastery_select").
		Description("Start a session on an unlocked challenge, or switch an existing session to one.").
		Handler(s.handleSelect)

	s.mcpServer.Tool("mastery_hint").
		Description("Reveal the next hint. Hints are revealed in order and never hidden again.").
		Handler(s.handleHint)

	s.mcpServer.Tool("mastery_solution").
		Description("Toggle the reference solution for the session's challenge.").
		Handler(s.handleSolution)

	s.mcpServer.Tool("mastery_submit").
		Description("Submit code for evaluation. Returns PASS, FAIL, PARTIAL or ERROR with feedback.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("mastery_progress").
		Description("Show completed challenges, weekly and overall percentages and the next challenge.").
		Handler(s.handleProgress)
}

// Input/Output types for tools

type CurriculumInput struct {
	Week int `json:"week,omitempty" jsonschema:"description=Only list this week (default: all weeks)"`
}

type ChallengeSummary struct {
	ID       string   `json:"id"`
	Week     int      `json:"week"`
	Day      int      `json:"day"`
	Title    string   `json:"title"`
	State    string   `json:"state"`
	Requires []string `json:"requires,omitempty"`
}

type CurriculumOutput struct {
	Challenges []ChallengeSummary `json:"challenges"`
	Overall    int                `json:"overall"`
}

type SelectInput struct {
	ChallengeID string `json:"challenge_id" jsonschema:"description=Challenge ID such as w1d1-typescript-basics"`
	SessionID   string `json:"session_id,omitempty" jsonschema:"description=Existing session to switch (omit to start a new one)"`
}

type SelectOutput struct {
	SessionID   string `json:"session_id"`
	ChallengeID string `json:"challenge_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Objective   string `json:"objective"`
	StarterCode string `json:"starter_code"`
	TotalHints  int    `json:"total_hints"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from mastery_select"`
}

type HintOutput struct {
	Hint          string `json:"hint"`
	HintsRevealed int    `json:"hints_revealed"`
	TotalHints    int    `json:"total_hints"`
}

type SolutionOutput struct {
	Visible  bool   `json:"visible"`
	Solution string `json:"solution,omitempty"`
}

type SubmitInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from mastery_select"`
	Code      string `json:"code" jsonschema:"description=The code to evaluate"`
}

type SubmitOutput struct {
	Verdict      string `json:"verdict"`
	Headline     string `json:"headline"`
	Message      string `json:"message"`
	Diagnostic   string `json:"diagnostic,omitempty"`
	Completed    bool   `json:"completed"`
	PersistError string `json:"persist_error,omitempty"`
}

type ProgressInput struct{}

type ProgressOutput struct {
	Completed []string                  `json:"completed"`
	Total     int                       `json:"total"`
	Overall   int                       `json:"overall"`
	Weeks     []curriculum.WeekProgress `json:"weeks"`
	Next      string                    `json:"next,omitempty"`
}

// Tool handlers

func (s *Server) handleCurriculum(ctx context.Context, input CurriculumInput) (CurriculumOutput, error) {
	p := s.tracker.Snapshot()

	challenges := s.catalog.All()
	if input.Week > 0 {
		challenges = s.catalog.ChallengesForWeek(input.Week)
	}

	out := CurriculumOutput{
		Challenges: make([]ChallengeSummary, 0, len(challenges)),
		Overall:    s.catalog.OverallProgress(p),
	}
	for _, c := range challenges {
		out.Challenges = append(out.Challenges, ChallengeSummary{
			ID:       c.ID,
			Week:     c.Week,
			Day:      c.Day,
			Title:    c.Title,
			State:    string(curriculum.State(c, p)),
			Requires: c.Requires,
		})
	}
	return out, nil
}

func (s *Server) handleSelect(ctx context.Context, input SelectInput) (SelectOutput, error) {
	if input.ChallengeID == "" {
		return SelectOutput{}, fmt.Errorf("challenge_id is required")
	}

	var (
		sess *session.Session
		err  error
	)
	if input.SessionID == "" {
		sess, err = s.sessions.Create(ctx, input.ChallengeID)
	} else {
		sess, err = s.sessions.Select(ctx, input.SessionID, input.ChallengeID)
	}
	if err != nil {
		return SelectOutput{}, fmt.Errorf("failed to select challenge: %w", err)
	}

	c, err := s.catalog.Get(sess.ChallengeID)
	if err != nil {
		return SelectOutput{}, err
	}

	return SelectOutput{
		SessionID:   sess.ID,
		ChallengeID: c.ID,
		Title:       c.Title,
		Description: c.Description,
		Objective:   c.LearningObjective,
		StarterCode: c.StarterCode,
		TotalHints:  sess.TotalHints,
	}, nil
}

func (s *Server) handleHint(ctx context.Context, input SessionInput) (HintOutput, error) {
	sess, err := s.sessions.RevealNextHint(ctx, input.SessionID)
	if err != nil {
		return HintOutput{}, fmt.Errorf("failed to reveal hint: %w", err)
	}

	out := HintOutput{
		HintsRevealed: sess.HintsRevealed,
		TotalHints:    sess.TotalHints,
	}
	if n := len(sess.Hints); n > 0 {
		out.Hint = sess.Hints[n-1]
	}
	return out, nil
}

func (s *Server) handleSolution(ctx context.Context, input SessionInput) (SolutionOutput, error) {
	sess, err := s.sessions.ToggleSolution(ctx, input.SessionID)
	if err != nil {
		return SolutionOutput{}, fmt.Errorf("failed to toggle solution: %w", err)
	}
	return SolutionOutput{
		Visible:  sess.SolutionVisible,
		Solution: sess.Solution,
	}, nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	if _, err := s.sessions.EditBuffer(ctx, input.SessionID, input.Code); err != nil {
		return SubmitOutput{}, fmt.Errorf("failed to update code: %w", err)
	}

	sess, err := s.sessions.Submit(ctx, input.SessionID)
	if err != nil {
		return SubmitOutput{}, fmt.Errorf("failed to submit: %w", err)
	}

	fb := sess.Feedback
	if fb == nil {
		fb = &domain.Feedback{Verdict: domain.VerdictError, Headline: domain.VerdictError.Headline()}
	}
	return SubmitOutput{
		Verdict:      string(fb.Verdict),
		Headline:     fb.Headline,
		Message:      fb.Message,
		Diagnostic:   string(fb.Diagnostic),
		Completed:    s.tracker.IsCompleted(sess.ChallengeID),
		PersistError: sess.PersistError,
	}, nil
}

func (s *Server) handleProgress(ctx context.Context, input ProgressInput) (ProgressOutput, error) {
	p := s.tracker.Snapshot()

	out := ProgressOutput{
		Completed: p.CompletedChallenges,
		Total:     s.catalog.Len(),
		Overall:   s.catalog.OverallProgress(p),
		Weeks:     make([]curriculum.WeekProgress, 0),
	}
	for _, week := range s.catalog.Weeks() {
		out.Weeks = append(out.Weeks, s.catalog.WeekProgress(week, p))
	}
	if next := s.catalog.Next(p); next != nil {
		out.Next = next.ID
	}
	return out, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}

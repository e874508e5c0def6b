package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/masterylab/internal/app"
	"github.com/felixgeelhaar/masterylab/internal/config"
	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/llm"
)

// mockProvider replies with a fixed evaluation
type mockProvider struct {
	reply string
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: m.reply}, nil
}

// setupTestServer creates an MCP server over in-memory storage
func setupTestServer(t *testing.T, reply string) *Server {
	t.Helper()

	cfg := config.DefaultLocalConfig()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Metrics.Enabled = false

	a, err := app.New(context.Background(), cfg, app.Options{
		MasteryDir: t.TempDir(),
		Provider:   &mockProvider{reply: reply},
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return NewServer(Config{
		Sessions: a.Sessions,
		Catalog:  a.Catalog,
		Tracker:  a.Tracker,
	})
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t, "[PASS] ok")

	if server.GetMCPServer() == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if server.sessions == nil || server.catalog == nil || server.tracker == nil {
		t.Fatal("expected services to be wired")
	}
}

func TestHandleCurriculum(t *testing.T) {
	server := setupTestServer(t, "[PASS] ok")
	ctx := context.Background()

	out, err := server.handleCurriculum(ctx, CurriculumInput{})
	if err != nil {
		t.Fatalf("handleCurriculum() error = %v", err)
	}
	if len(out.Challenges) != 7 {
		t.Fatalf("challenges = %d, want 7", len(out.Challenges))
	}
	if out.Challenges[0].State != string(domain.StateAvailable) {
		t.Errorf("first challenge state = %s", out.Challenges[0].State)
	}
	for _, c := range out.Challenges[1:] {
		if c.State != string(domain.StateLocked) {
			t.Errorf("%s state = %s, want locked", c.ID, c.State)
		}
	}

	week2, _ := server.handleCurriculum(ctx, CurriculumInput{Week: 2})
	if len(week2.Challenges) != 2 {
		t.Errorf("week 2 challenges = %d, want 2", len(week2.Challenges))
	}
}

func TestHandleSelect(t *testing.T) {
	server := setupTestServer(t, "[PASS] ok")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   SelectInput
		wantErr error
	}{
		{"missing id", SelectInput{}, nil},
		{"locked", SelectInput{ChallengeID: "w1d2-react-components"}, domain.ErrChallengeLocked},
		{"unknown", SelectInput{ChallengeID: "w9d9-nothing"}, domain.ErrChallengeNotFound},
		{"unknown session", SelectInput{ChallengeID: "w1d1-typescript-basics", SessionID: "missing"}, domain.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := server.handleSelect(ctx, tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	out, err := server.handleSelect(ctx, SelectInput{ChallengeID: "w1d1-typescript-basics"})
	if err != nil {
		t.Fatalf("handleSelect() error = %v", err)
	}
	if out.SessionID == "" || out.TotalHints != 3 || out.StarterCode == "" {
		t.Errorf("select output = %+v", out)
	}
}

func TestHintsAndSolution(t *testing.T) {
	server := setupTestServer(t, "[PASS] ok")
	ctx := context.Background()

	sel, err := server.handleSelect(ctx, SelectInput{ChallengeID: "w1d1-typescript-basics"})
	if err != nil {
		t.Fatalf("handleSelect() error = %v", err)
	}
	in := SessionInput{SessionID: sel.SessionID}

	var last HintOutput
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		last, err = server.handleHint(ctx, in)
		if err != nil {
			t.Fatalf("handleHint() error = %v", err)
		}
		seen[last.Hint] = true
	}
	if last.HintsRevealed != 3 || last.TotalHints != 3 {
		t.Errorf("hints = %d/%d, want 3/3", last.HintsRevealed, last.TotalHints)
	}
	if len(seen) != 3 {
		t.Errorf("distinct hints = %d, want 3", len(seen))
	}

	sol, _ := server.handleSolution(ctx, in)
	if !sol.Visible || sol.Solution == "" {
		t.Errorf("solution = %+v, want visible", sol)
	}
	sol, _ = server.handleSolution(ctx, in)
	if sol.Visible || sol.Solution != "" {
		t.Errorf("solution = %+v, want hidden", sol)
	}
}

func TestHandleSubmit(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		wantVerdict   domain.Verdict
		wantCompleted bool
	}{
		{"pass", "[PASS] Great work", domain.VerdictPass, true},
		{"fail", "[FAIL] Types are missing", domain.VerdictFail, false},
		{"untagged", "Looks mostly right", domain.VerdictPartial, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, tt.reply)
			ctx := context.Background()

			sel, err := server.handleSelect(ctx, SelectInput{ChallengeID: "w1d1-typescript-basics"})
			if err != nil {
				t.Fatalf("handleSelect() error = %v", err)
			}

			out, err := server.handleSubmit(ctx, SubmitInput{SessionID: sel.SessionID, Code: "const x: number = 1"})
			if err != nil {
				t.Fatalf("handleSubmit() error = %v", err)
			}
			if out.Verdict != string(tt.wantVerdict) {
				t.Errorf("verdict = %s, want %s", out.Verdict, tt.wantVerdict)
			}
			if out.Completed != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", out.Completed, tt.wantCompleted)
			}
			if strings.HasPrefix(out.Message, "[") {
				t.Errorf("message should not carry the tag: %q", out.Message)
			}
		})
	}
}

func TestProgressAfterPass(t *testing.T) {
	server := setupTestServer(t, "[PASS] ok")
	ctx := context.Background()

	before, _ := server.handleProgress(ctx, ProgressInput{})
	if before.Next != "w1d1-typescript-basics" || before.Overall != 0 {
		t.Errorf("initial progress = %+v", before)
	}

	sel, _ := server.handleSelect(ctx, SelectInput{ChallengeID: "w1d1-typescript-basics"})
	if _, err := server.handleSubmit(ctx, SubmitInput{SessionID: sel.SessionID, Code: "x"}); err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}

	after, err := server.handleProgress(ctx, ProgressInput{})
	if err != nil {
		t.Fatalf("handleProgress() error = %v", err)
	}
	if len(after.Completed) != 1 || after.Total != 7 || after.Overall != 14 {
		t.Errorf("progress = %+v", after)
	}
	if len(after.Weeks) != 2 || after.Weeks[0].Percentage != 20 {
		t.Errorf("weeks = %+v", after.Weeks)
	}

	// The second challenge is now open on the same session
	if _, err := server.handleSelect(ctx, SelectInput{ChallengeID: "w1d2-react-components", SessionID: sel.SessionID}); err != nil {
		t.Errorf("select unlocked challenge: %v", err)
	}
}

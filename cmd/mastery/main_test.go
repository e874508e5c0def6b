package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{0, "[░░░░░░░░░░]"},
		{50, "[█████░░░░░]"},
		{100, "[██████████]"},
		{140, "[██████████]"},
		{-5, "[░░░░░░░░░░]"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.percent, 10); got != tt.want {
			t.Errorf("renderProgressBar(%d) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                    "(not set)",
		"short":               "*****",
		"sk-ant-0123456789ab": "sk-a********89ab",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"error": "challenge is locked", "status": 403})
	}))
	defer srv.Close()

	err := newClient(srv.URL, time.Minute).get(context.Background(), "/v1/anything", nil)
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *apiError", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "challenge is locked" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClient_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))

	c := newClient(srv.URL, time.Minute)
	if !c.healthy(context.Background()) {
		t.Error("expected healthy daemon")
	}
	srv.Close()
	if c.healthy(context.Background()) {
		t.Error("closed daemon should not be healthy")
	}
}

// fakeDaemon records the session calls a submission makes
type fakeDaemon struct {
	mu     sync.Mutex
	calls  []string
	code   string
	status int
}

func (f *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
		if f.status != 0 {
			w.WriteHeader(f.status)
			json.NewEncoder(w).Encode(map[string]any{"error": "challenge is locked", "status": f.status})
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"s1","challenge_id":"w1d1-typescript-basics","state":"idle"}`))
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/buffer"):
		var body struct {
			Code string `json:"code"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.code = body.Code
		w.Write([]byte(`{"id":"s1"}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/submit"):
		w.Write([]byte(`{"id":"s1","state":"evaluated","feedback":{"verdict":"PASS","headline":"Challenge Complete!","message":"Well typed."}}`))
	case r.Method == http.MethodDelete:
		w.Write([]byte(`{"deleted":true}`))
	default:
		http.NotFound(w, r)
	}
}

func TestSubmit(t *testing.T) {
	daemon := &fakeDaemon{}
	srv := httptest.NewServer(daemon)
	defer srv.Close()

	fb, persistErr, err := submit(context.Background(), newClient(srv.URL, time.Minute), "w1d1-typescript-basics", "let n: number = 1")
	if err != nil {
		t.Fatalf("submit() error = %v", err)
	}
	if fb.Verdict != "PASS" || fb.Message != "Well typed." || persistErr != "" {
		t.Errorf("feedback = %+v, persist = %q", fb, persistErr)
	}
	if daemon.code != "let n: number = 1" {
		t.Errorf("uploaded code = %q", daemon.code)
	}

	want := []string{
		"POST /v1/sessions",
		"PUT /v1/sessions/s1/buffer",
		"POST /v1/sessions/s1/submit",
		"DELETE /v1/sessions/s1",
	}
	if strings.Join(daemon.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", daemon.calls, want)
	}
}

func TestSubmit_Locked(t *testing.T) {
	daemon := &fakeDaemon{status: http.StatusForbidden}
	srv := httptest.NewServer(daemon)
	defer srv.Close()

	_, _, err := submit(context.Background(), newClient(srv.URL, time.Minute), "w1d2-react-components", "x")
	if err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("error = %v, want locked", err)
	}
	if len(daemon.calls) != 1 {
		t.Errorf("calls = %v, want only the create", daemon.calls)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandler_FansOut(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&textBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}})

	logger.With("component", "tracker").Info("progress saved", "completed", 2)
	logger.Warn("failed to save progress")

	lines := strings.Split(strings.TrimSpace(jsonBuf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("json lines = %d, want 2", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if rec["component"] != "tracker" || rec["completed"] != float64(2) {
		t.Errorf("json record = %v", rec)
	}

	text := textBuf.String()
	if strings.Contains(text, "progress saved") {
		t.Error("info record should be filtered by the warn handler")
	}
	if !strings.Contains(text, "failed to save progress") {
		t.Error("warn record missing from text handler")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

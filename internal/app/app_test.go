package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/masterylab/internal/config"
	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/llm"
	"github.com/felixgeelhaar/masterylab/internal/storage"
)

type passProvider struct{}

func (passProvider) Name() string { return "pass" }

func (passProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "[PASS] Good"}, nil
}

func testConfig() *config.LocalConfig {
	cfg := config.DefaultLocalConfig()
	cfg.Storage.Driver = config.DriverMemory
	cfg.LLM.APIKey = "test-key"
	return cfg
}

func TestNew_EmbeddedCurriculum(t *testing.T) {
	a, err := New(context.Background(), testConfig(), Options{MasteryDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Catalog.Len() != 7 {
		t.Errorf("Catalog.Len() = %d, want 7", a.Catalog.Len())
	}
	if ai, _ := a.Tips.Count(); ai == 0 {
		t.Error("tips should be loaded")
	}
	if a.Metrics == nil {
		t.Error("metrics should be enabled by default")
	}
	if a.EventsConnected() {
		t.Error("events are disabled by default")
	}
	if a.Provider.Name() != "claude" {
		t.Errorf("Provider.Name() = %q", a.Provider.Name())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "floppy"

	if _, err := New(context.Background(), cfg, Options{MasteryDir: t.TempDir()}); err == nil {
		t.Error("New() should reject an unknown driver")
	}
}

func TestNew_SubmitEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"[PASS] Nice job"}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.LLM.BaseURL = server.URL
	cfg.Storage.Driver = config.DriverFile
	dir := t.TempDir()

	ctx := context.Background()
	a, err := New(ctx, cfg, Options{MasteryDir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	first := a.Catalog.All()[0]
	sess, err := a.Sessions.Create(ctx, first.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sess, err = a.Sessions.Submit(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sess.Feedback.Verdict != domain.VerdictPass || sess.Feedback.Message != "Nice job" {
		t.Errorf("Feedback = %+v", sess.Feedback)
	}

	if _, err := os.Stat(filepath.Join(dir, "data", config.ProgressKey+".json")); err != nil {
		t.Errorf("progress file not written: %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"memory", config.StorageConfig{Driver: config.DriverMemory}},
		{"file", config.StorageConfig{Driver: config.DriverFile, Path: "data"}},
		{"sqlite", config.StorageConfig{Driver: config.DriverSQLite, Path: "db/progress.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := OpenStore(ctx, tt.cfg, dir)
			if err != nil {
				t.Fatalf("OpenStore() error = %v", err)
			}
			defer kv.Close()

			if _, err := kv.Get(ctx, config.ProgressKey); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("Get() on empty store error = %v", err)
			}
			if err := kv.Set(ctx, config.ProgressKey, []byte(`{}`)); err != nil {
				t.Errorf("Set() error = %v", err)
			}
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.StorageConfig{Driver: "tape"}, t.TempDir()); err == nil {
		t.Error("OpenStore() should fail for an unknown driver")
	}
}

func TestNew_UnusableStorage(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		storage config.StorageConfig
	}{
		{
			name:    "file path under a regular file",
			storage: config.StorageConfig{Driver: config.DriverFile, Path: filepath.Join(blocker, "data"), Key: config.ProgressKey},
		},
		{
			name:    "unreachable redis",
			storage: config.StorageConfig{Driver: config.DriverRedis, DSN: "redis://127.0.0.1:1/0", Key: config.ProgressKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig()
			cfg.Storage = tt.storage

			a, err := New(ctx, cfg, Options{MasteryDir: dir, Provider: passProvider{}})
			if err != nil {
				t.Fatalf("New() error = %v, want degraded start", err)
			}
			defer a.Close()

			if a.StorageErr == nil {
				t.Error("StorageErr should record why the backend is unusable")
			}
			if a.Tracker.Snapshot().CompletedCount() != 0 {
				t.Error("progress should start from defaults")
			}

			sess, err := a.Sessions.Create(ctx, "w1d1-typescript-basics")
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			sess, err = a.Sessions.Submit(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if sess.Feedback.Verdict != domain.VerdictPass {
				t.Errorf("Verdict = %s, want PASS", sess.Feedback.Verdict)
			}
			if sess.PersistError == "" {
				t.Error("PersistError should report that the completion was not saved")
			}
			if !a.Tracker.IsCompleted("w1d1-typescript-basics") {
				t.Error("completion should be kept in memory")
			}
			if !errors.Is(a.Tracker.LastPersistError(), storage.ErrUnavailable) {
				t.Errorf("LastPersistError() = %v, want ErrUnavailable", a.Tracker.LastPersistError())
			}
		})
	}
}

func TestNew_BrokenCurriculumOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "curriculum.yaml"), []byte("challenges: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Curriculum.Path = dir

	a, err := New(context.Background(), cfg, Options{MasteryDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v, want built-in content", err)
	}
	defer a.Close()

	if a.Catalog.Len() != 7 {
		t.Errorf("Catalog.Len() = %d, want the 7 built-in challenges", a.Catalog.Len())
	}
}

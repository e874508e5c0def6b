package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestMasteryDir(t *testing.T) {
	dir, err := MasteryDir()
	if err != nil {
		t.Fatalf("MasteryDir() error = %v", err)
	}

	if filepath.Base(dir) != ".mastery" {
		t.Errorf("MasteryDir() = %q, want ending with .mastery", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("MasteryDir() = %q, want absolute path", dir)
	}
}

func TestEnsureMasteryDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir, err := EnsureMasteryDir()
	if err != nil {
		t.Fatalf("EnsureMasteryDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".mastery")
	if dir != expectedDir {
		t.Errorf("EnsureMasteryDir() = %q, want %q", dir, expectedDir)
	}

	for _, subdir := range []string{"logs", "data"} {
		if _, err := os.Stat(filepath.Join(dir, subdir)); os.IsNotExist(err) {
			t.Errorf("EnsureMasteryDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.LLM.Model != "claude-sonnet-4-20250514" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 1000 {
		t.Errorf("LLM.MaxTokens = %d, want 1000", cfg.LLM.MaxTokens)
	}
	if cfg.Storage.Key != ProgressKey {
		t.Errorf("Storage.Key = %q, want %q", cfg.Storage.Key, ProgressKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLocalConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *LocalConfig)
	}{
		{"bad port", func(c *LocalConfig) { c.Daemon.Port = 0 }},
		{"unknown driver", func(c *LocalConfig) { c.Storage.Driver = "mongo" }},
		{"postgres without dsn", func(c *LocalConfig) { c.Storage.Driver = DriverPostgres }},
		{"redis without dsn", func(c *LocalConfig) { c.Storage.Driver = DriverRedis }},
		{"empty key", func(c *LocalConfig) { c.Storage.Key = "" }},
		{"zero tokens", func(c *LocalConfig) { c.LLM.MaxTokens = 0 }},
		{"zero timeout", func(c *LocalConfig) { c.LLM.TimeoutSeconds = 0 }},
		{"two retries", func(c *LocalConfig) { c.LLM.MaxRetries = 2 }},
		{"events without url", func(c *LocalConfig) { c.Events.Enabled = true; c.Events.URL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoadLocalConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAnthropicKey, "")

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want default", cfg.Daemon.Port)
	}
	if cfg.LLM.APIKey != "" {
		t.Error("APIKey should be empty without secrets")
	}
}

func TestLoadLocalConfig_FileAndSecrets(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAnthropicKey, "")

	dir, err := EnsureMasteryDir()
	if err != nil {
		t.Fatalf("EnsureMasteryDir() error = %v", err)
	}

	fileCfg := map[string]any{
		"daemon":  map[string]any{"port": 9000},
		"storage": map[string]any{"driver": "sqlite", "path": "mastery.db"},
	}
	data, _ := yaml.Marshal(fileCfg)
	os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
	os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte("llm:\n  api_key: sk-test\n"), 0600)

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 9000 {
		t.Errorf("Daemon.Port = %d, want 9000", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("unset fields should keep defaults, Bind = %q", cfg.Daemon.Bind)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.LLM.APIKey)
	}
}

func TestLoadLocalConfig_InvalidYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir, _ := EnsureMasteryDir()
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon: [oops"), 0644)

	if _, err := LoadLocalConfig(); err == nil {
		t.Error("LoadLocalConfig() should fail on invalid YAML")
	}
}

func TestSaveAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveAPIKey("sk-saved"); err != nil {
		t.Fatalf("SaveAPIKey() error = %v", err)
	}

	dir, _ := MasteryDir()
	info, err := os.Stat(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		t.Fatalf("secrets.yaml not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("secrets.yaml mode = %v, want 0600", info.Mode().Perm())
	}

	cfg := DefaultLocalConfig()
	if err := loadSecrets(dir, cfg); err != nil {
		t.Fatalf("loadSecrets() error = %v", err)
	}
	if cfg.LLM.APIKey != "sk-saved" {
		t.Errorf("APIKey = %q, want sk-saved", cfg.LLM.APIKey)
	}
}

func TestSaveLocalConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvPort, "")

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8123
	cfg.LLM.APIKey = "never-written"
	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	dir, _ := MasteryDir()
	data, _ := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if string(data) == "" {
		t.Fatal("config.yaml is empty")
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 8123 {
		t.Errorf("Daemon.Port = %d, want 8123", loaded.Daemon.Port)
	}
}

func TestLocalConfig_RequestTimeout(t *testing.T) {
	tests := []struct {
		name       string
		timeoutSec int
		retries    int
		want       time.Duration
	}{
		{"defaults", 30, 1, 136 * time.Second},
		{"short timeout uses floor", 5, 1, 2 * time.Minute},
		{"no retry", 60, 0, 135 * time.Second},
		{"long timeout with retry", 90, 1, 376 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			cfg.LLM.TimeoutSeconds = tt.timeoutSec
			cfg.LLM.MaxRetries = tt.retries

			got := cfg.RequestTimeout()
			if got != tt.want {
				t.Errorf("RequestTimeout() = %v, want %v", got, tt.want)
			}

			// Two attempts plus the retry pause must finish inside the budget
			worst := time.Duration(1+tt.retries)*time.Duration(tt.timeoutSec)*time.Second + time.Duration(tt.retries)*time.Second
			if got <= worst {
				t.Errorf("RequestTimeout() = %v does not exceed worst-case evaluation %v", got, worst)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/home/u/.mastery", "data"); got != "/home/u/.mastery/data" {
		t.Errorf("ResolvePath(relative) = %q", got)
	}
	if got := ResolvePath("/home/u/.mastery", "/var/lib/m.db"); got != "/var/lib/m.db" {
		t.Errorf("ResolvePath(absolute) = %q", got)
	}
}

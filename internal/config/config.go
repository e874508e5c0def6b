package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration
const (
	EnvAPIKey         = "MASTERY_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvModel          = "MASTERY_MODEL"
	EnvLLMBaseURL     = "MASTERY_LLM_BASE_URL"
	EnvPort           = "MASTERY_PORT"
	EnvLogLevel       = "MASTERY_LOG_LEVEL"
	EnvStorageDriver  = "MASTERY_STORAGE_DRIVER"
	EnvStorageDSN     = "MASTERY_STORAGE_DSN"
	EnvStoragePath    = "MASTERY_STORAGE_PATH"
	EnvCurriculumPath = "MASTERY_CURRICULUM_PATH"
	EnvEventsEnabled  = "MASTERY_EVENTS_ENABLED"
	EnvEventsURL      = "MASTERY_EVENTS_URL"
	EnvMetricsEnabled = "MASTERY_METRICS_ENABLED"
)

// ApplyEnv loads .env from the working directory when present and overlays
// environment variables onto cfg. Variables already set in the process
// environment win over .env entries.
func ApplyEnv(cfg *LocalConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg.LLM.APIKey = getEnv(EnvAPIKey, getEnv(EnvAnthropicKey, cfg.LLM.APIKey))
	cfg.LLM.Model = getEnv(EnvModel, cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv(EnvLLMBaseURL, cfg.LLM.BaseURL)
	cfg.Daemon.Port = getEnvInt(EnvPort, cfg.Daemon.Port)
	cfg.Daemon.LogLevel = getEnv(EnvLogLevel, cfg.Daemon.LogLevel)
	cfg.Storage.Driver = getEnv(EnvStorageDriver, cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv(EnvStorageDSN, cfg.Storage.DSN)
	cfg.Storage.Path = getEnv(EnvStoragePath, cfg.Storage.Path)
	cfg.Curriculum.Path = getEnv(EnvCurriculumPath, cfg.Curriculum.Path)
	cfg.Events.Enabled = getEnvBool(EnvEventsEnabled, cfg.Events.Enabled)
	cfg.Events.URL = getEnv(EnvEventsURL, cfg.Events.URL)
	cfg.Metrics.Enabled = getEnvBool(EnvMetricsEnabled, cfg.Metrics.Enabled)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/config"
	"github.com/felixgeelhaar/masterylab/internal/curriculum"
	"github.com/felixgeelhaar/masterylab/internal/evaluation"
	"github.com/felixgeelhaar/masterylab/internal/events"
	"github.com/felixgeelhaar/masterylab/internal/llm"
	"github.com/felixgeelhaar/masterylab/internal/metrics"
	"github.com/felixgeelhaar/masterylab/internal/progress"
	"github.com/felixgeelhaar/masterylab/internal/session"
	"github.com/felixgeelhaar/masterylab/internal/storage"
	"github.com/felixgeelhaar/masterylab/internal/storage/local"
	"github.com/felixgeelhaar/masterylab/internal/storage/postgres"
	"github.com/felixgeelhaar/masterylab/internal/storage/redisstore"
	"github.com/felixgeelhaar/masterylab/internal/storage/sqlite"
)

// App holds the wired services shared by the daemon, the MCP server and the
// CLI's local commands.
type App struct {
	Config    *config.LocalConfig
	Catalog   *curriculum.Catalog
	Tips      *curriculum.Tips
	Store     storage.KV
	Tracker   *progress.Tracker
	Provider  llm.Provider
	Evaluator *evaluation.Evaluator
	Sessions  *session.Service
	Metrics   *metrics.Metrics

	// StorageErr is set when the configured backend could not be opened and
	// progress is only being kept in memory
	StorageErr error

	events *events.Connection
}

// Options adjusts how the app is built
type Options struct {
	// MasteryDir resolves relative storage paths. Empty means ~/.mastery.
	MasteryDir string

	// Provider replaces the configured Claude provider
	Provider llm.Provider

	Logger *slog.Logger
}

// New builds every service from cfg
func New(ctx context.Context, cfg *config.LocalConfig, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MasteryDir == "" {
		dir, err := config.MasteryDir()
		if err != nil {
			return nil, err
		}
		opts.MasteryDir = dir
	}

	a := &App{Config: cfg}

	loader := curriculum.EmbeddedLoader()
	if cfg.Curriculum.Path != "" {
		loader = curriculum.DirLoader(cfg.Curriculum.Path)
	}
	catalog, tips, err := loadContent(loader)
	if err != nil && cfg.Curriculum.Path != "" {
		opts.Logger.Warn("curriculum override unusable, using built-in content",
			"path", cfg.Curriculum.Path,
			"error", err)
		catalog, tips, err = loadContent(curriculum.EmbeddedLoader())
	}
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog
	a.Tips = tips

	store, err := OpenStore(ctx, cfg.Storage, opts.MasteryDir)
	if err != nil {
		opts.Logger.Warn("progress storage unavailable, keeping progress in memory",
			"driver", cfg.Storage.Driver,
			"error", err)
		a.StorageErr = err
		store = storage.NewDegraded(err)
	}
	a.Store = store
	a.Tracker = progress.NewTracker(ctx,
		progress.NewKVRepository(store, cfg.Storage.Key),
		progress.WithLogger(opts.Logger))

	a.Provider = opts.Provider
	if a.Provider == nil {
		a.Provider = NewProvider(cfg.LLM, opts.Logger)
	}
	a.Evaluator = evaluation.NewEvaluator(a.Provider, evaluation.Config{
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Logger:    opts.Logger,
	})

	a.Sessions = session.NewService(a.Catalog, a.Tracker, a.Evaluator)
	a.Sessions.SetLogger(opts.Logger)

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Sessions.SetMetrics(a.Metrics)
	}

	if cfg.Events.Enabled {
		conn, err := events.NewConnection(cfg.Events.URL, cfg.Events.Queue)
		if err != nil {
			// Completion events are optional; learning continues without them
			opts.Logger.Warn("completion events disabled", "error", err)
		} else {
			a.events = conn
			a.Sessions.SetNotifier(events.NewPublisher(conn))
		}
	}

	return a, nil
}

func loadContent(loader *curriculum.Loader) (*curriculum.Catalog, *curriculum.Tips, error) {
	catalog, err := curriculum.Load(loader)
	if err != nil {
		return nil, nil, fmt.Errorf("load curriculum: %w", err)
	}
	tips, err := loader.LoadTips()
	if err != nil {
		return nil, nil, fmt.Errorf("load tips: %w", err)
	}
	return catalog, tips, nil
}

// NewProvider builds the Claude provider wrapped with timeout, retry and
// circuit breaker
func NewProvider(cfg config.LLMConfig, logger *slog.Logger) llm.Provider {
	claude := llm.NewClaudeProvider(llm.ClaudeConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if cfg.APIKey == "" {
		logger.Warn("no API key configured; submissions will report a validation error")
	}

	rc := llm.DefaultResilientConfig()
	rc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	rc.MaxRetries = cfg.MaxRetries
	rc.Logger = logger
	return llm.NewResilientProvider(claude, rc)
}

// OpenStore opens the key-value backend selected by cfg.Driver
func OpenStore(ctx context.Context, cfg config.StorageConfig, masteryDir string) (storage.KV, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return local.NewStore(config.ResolvePath(masteryDir, cfg.Path))
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" || path == "data" {
			path = "data/mastery.db"
		}
		path = config.ResolvePath(masteryDir, path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		return sqlite.OpenKVStore(ctx, path)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case config.DriverRedis:
		return redisstore.Open(ctx, cfg.DSN, "mastery:")
	case config.DriverMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// EventsConnected reports whether completion events are being published
func (a *App) EventsConnected() bool {
	return a.events != nil && a.events.IsConnected()
}

// Close releases storage and broker connections
func (a *App) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

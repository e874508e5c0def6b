package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/masterylab/internal/config"
	cli "github.com/urfave/cli/v3"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "masteryd.pid"

func main() {
	app := &cli.Command{
		Name:        "mastery",
		Usage:       "Mastery Lab - a gated two-week coding curriculum",
		Description: "Run 'mastery serve' to start the daemon, then 'mastery curriculum' to see what is open.",
		Commands: []*cli.Command{
			serveCmd(),
			stopCmd(),
			statusCmd(),
			logsCmd(),
			curriculumCmd(),
			showCmd(),
			progressCmd(),
			submitCmd(),
			tipCmd(),
			mcpCmd(),
			eventsCmd(),
			configCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("mastery %s\n", Version)
			return nil
		},
	}
}

// loadClient loads the local configuration and returns a client for the
// daemon it points at.
func loadClient() (*client, *config.LocalConfig, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	// Submissions wait on the evaluation service
	return newClient(cfg.Daemon.URL(), cfg.RequestTimeout()), cfg, nil
}

// requireDaemon returns a client for a running daemon
func requireDaemon(ctx context.Context) (*client, error) {
	c, _, err := loadClient()
	if err != nil {
		return nil, err
	}
	if !c.healthy(ctx) {
		return nil, fmt.Errorf("daemon not running at %s (run 'mastery serve' first)", c.baseURL)
	}
	return c, nil
}

// renderProgressBar creates a visual progress bar for a percentage
func renderProgressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/felixgeelhaar/masterylab/internal/app"
	"github.com/felixgeelhaar/masterylab/internal/config"
	mcpserver "github.com/felixgeelhaar/masterylab/internal/mcp"
	cli "github.com/urfave/cli/v3"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the lab as MCP tools on stdio (for editor integration)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadLocalConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			masteryDir, err := config.EnsureMasteryDir()
			if err != nil {
				return err
			}

			// stdout carries the protocol
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if f, err := os.OpenFile(filepath.Join(masteryDir, "logs", "mcp.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				defer f.Close()
				logger = slog.New(slog.NewJSONHandler(f, nil))
			}
			slog.SetDefault(logger)

			a, err := app.New(ctx, cfg, app.Options{MasteryDir: masteryDir, Logger: logger})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcpserver.NewServer(mcpserver.Config{
				Sessions: a.Sessions,
				Catalog:  a.Catalog,
				Tracker:  a.Tracker,
				Version:  Version,
			})

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ServeStdio(ctx)
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/masterylab/internal/config"
	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change the local configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadLocalConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			dir, err := config.MasteryDir()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Printf("# %s/config.yaml\n", dir)
			fmt.Print(string(data))
			fmt.Printf("\n# API key: %s\n", maskKey(cfg.LLM.APIKey))
			if err := cfg.Validate(); err != nil {
				fmt.Printf("# ⚠ %v\n", err)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config.yaml"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir, err := config.MasteryDir()
					if err != nil {
						return err
					}
					path := filepath.Join(dir, "config.yaml")
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						fmt.Printf("%s already exists (use --force to overwrite)\n", path)
						return nil
					}
					if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
						return err
					}
					fmt.Println("✓ Wrote default configuration")
					return nil
				},
			},
			{
				Name:      "set-key",
				Usage:     "Store the evaluation API key in secrets.yaml",
				ArgsUsage: "<api-key>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					key := strings.TrimSpace(cmd.Args().First())
					if key == "" {
						return fmt.Errorf("api key argument is required")
					}
					if err := config.SaveAPIKey(key); err != nil {
						return err
					}
					fmt.Printf("✓ API key saved (%s)\n", maskKey(key))
					return nil
				},
			},
		},
	}
}

// maskKey shows only enough of a key to tell keys apart
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + strings.Repeat("*", 8) + key[len(key)-4:]
	}
}

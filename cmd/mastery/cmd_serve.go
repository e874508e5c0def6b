package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/config"
	cli "github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the daemon (in the background unless --foreground)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "foreground", Aliases: []string{"f"}, Usage: "Run in this terminal until interrupted"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			if c.healthy(ctx) {
				fmt.Println("✓ Daemon is already running")
				return nil
			}

			masteryDir, err := config.EnsureMasteryDir()
			if err != nil {
				return fmt.Errorf("setup mastery directory: %w", err)
			}

			daemonPath, err := findDaemonBinary()
			if err != nil {
				return fmt.Errorf("find daemon binary: %w", err)
			}

			if cmd.Bool("foreground") {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				proc := exec.CommandContext(ctx, daemonPath)
				proc.Dir = masteryDir
				proc.Stdout = os.Stdout
				proc.Stderr = os.Stderr
				proc.Cancel = func() error { return proc.Process.Signal(syscall.SIGTERM) }
				proc.WaitDelay = 35 * time.Second
				return proc.Run()
			}

			proc := exec.Command(daemonPath)
			proc.Dir = masteryDir
			configureDaemonProcess(proc)

			if err := proc.Start(); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			fmt.Print("Starting daemon...")
			for i := 0; i < 30; i++ {
				time.Sleep(100 * time.Millisecond)
				if c.healthy(ctx) {
					fmt.Println(" ✓")
					fmt.Printf("Daemon running at %s\n", c.baseURL)
					return nil
				}
				fmt.Print(".")
			}

			fmt.Println(" ✗")
			return fmt.Errorf("daemon failed to start (check logs with 'mastery logs')")
		},
	}
}

func stopCmd() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Stop the daemon",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			if !c.healthy(ctx) {
				fmt.Println("Daemon is not running")
				return nil
			}

			masteryDir, err := config.MasteryDir()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(filepath.Join(masteryDir, pidFile))
			if err != nil {
				return fmt.Errorf("read PID file: %w", err)
			}
			pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil {
				return fmt.Errorf("parse PID: %w", err)
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("find process: %w", err)
			}

			fmt.Print("Stopping daemon...")
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("send signal: %w", err)
			}

			for i := 0; i < 50; i++ {
				time.Sleep(100 * time.Millisecond)
				if !c.healthy(ctx) {
					fmt.Println(" ✓")
					return nil
				}
				fmt.Print(".")
			}

			fmt.Println(" ✗")
			return fmt.Errorf("daemon did not stop gracefully")
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show daemon status",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			if !c.healthy(ctx) {
				fmt.Println("Status: stopped")
				return nil
			}

			var status struct {
				Status          string   `json:"status"`
				Version         string   `json:"version"`
				Model           string   `json:"model"`
				LLMConfigured   bool     `json:"llm_configured"`
				Storage         string   `json:"storage"`
				StorageError    string   `json:"storage_error"`
				Events          bool     `json:"events"`
				Challenges      int      `json:"challenges"`
				Sessions        int      `json:"sessions"`
				ContentWarnings []string `json:"content_warnings"`
			}
			if err := c.get(ctx, "/v1/status", &status); err != nil {
				return fmt.Errorf("get status: %w", err)
			}

			fmt.Printf("Status:     %s\n", status.Status)
			fmt.Printf("Version:    %s\n", status.Version)
			fmt.Printf("Address:    %s\n", c.baseURL)
			fmt.Printf("Model:      %s (key configured: %v)\n", status.Model, status.LLMConfigured)
			fmt.Printf("Storage:    %s\n", status.Storage)
			if status.StorageError != "" {
				fmt.Printf("⚠ progress is not being saved: %s\n", status.StorageError)
			}
			fmt.Printf("Events:     %v\n", status.Events)
			fmt.Printf("Challenges: %d\n", status.Challenges)
			fmt.Printf("Sessions:   %d\n", status.Sessions)
			for _, w := range status.ContentWarnings {
				fmt.Printf("⚠ %s\n", w)
			}
			return nil
		},
	}
}

func logsCmd() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Show recent daemon logs",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			masteryDir, err := config.MasteryDir()
			if err != nil {
				return err
			}

			file, err := os.Open(filepath.Join(masteryDir, "logs", "masteryd.log"))
			if os.IsNotExist(err) {
				fmt.Println("No log file found. Start the daemon first.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer file.Close()

			// Last ~4KB
			info, err := file.Stat()
			if err != nil {
				return err
			}
			offset := max(info.Size()-4096, 0)
			if _, err := file.Seek(offset, 0); err != nil {
				return err
			}

			reader := bufio.NewReader(file)
			if offset > 0 {
				_, _ = reader.ReadString('\n')
			}

			scanner := bufio.NewScanner(reader)
			for scanner.Scan() {
				fmt.Println(scanner.Text())
			}
			return scanner.Err()
		},
	}
}

// findDaemonBinary locates the masteryd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("masteryd"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "masteryd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/masteryd", "./masteryd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("masteryd binary not found (build with 'go build ./cmd/masteryd')")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/config"
	"github.com/felixgeelhaar/masterylab/internal/events"
	cli "github.com/urfave/cli/v3"
)

func eventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Follow challenge completion events from the message queue",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "AMQP URL (default: events.url from config)"},
			&cli.StringFlag{Name: "queue", Usage: "Queue name (default: events.queue from config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadLocalConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			url := cmd.String("url")
			if url == "" {
				url = cfg.Events.URL
			}
			queue := cmd.String("queue")
			if queue == "" {
				queue = cfg.Events.Queue
			}

			conn, err := events.NewConnection(url, queue)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			consumer := events.NewConsumer(conn, printEvent)
			if err := consumer.Start(ctx); err != nil {
				return err
			}
			defer consumer.Stop()

			fmt.Printf("Waiting for completions on %s (Ctrl+C to stop)\n", conn.Queue())
			<-ctx.Done()
			return nil
		},
	}
}

func printEvent(ctx context.Context, e *events.ChallengeCompleted) error {
	fmt.Printf("%s  ✓ %-28s week %d day %d  (%d completed)\n",
		e.CompletedAt.Local().Format(time.DateTime), e.ChallengeID, e.Week, e.Day, e.CompletedCount)
	return nil
}

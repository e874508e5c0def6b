package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one completion event. A returned error requeues the
// message once; malformed messages are dropped.
type Handler func(ctx context.Context, event *ChallengeCompleted) error

// Consumer reads completion events
type Consumer struct {
	conn       *Connection
	handler    Handler
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler Handler) *Consumer {
	return &Consumer{
		conn:    conn,
		handler: handler,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.conn.Queue(),
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("consuming completion events", "queue", c.conn.Queue())

	c.wg.Add(1)
	go c.consume(ctx, msgs)
	return nil
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed")
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

// acknowledger is the part of amqp.Delivery processing needs
type acknowledger interface {
	Ack(multiple bool) error
	Reject(requeue bool) error
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	c.handle(ctx, msg.Body, msg.Redelivered, &msg)
}

func (c *Consumer) handle(ctx context.Context, body []byte, redelivered bool, ack acknowledger) {
	var event ChallengeCompleted
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Error("failed to unmarshal completion event", "error", err)
		_ = ack.Reject(false)
		return
	}

	if err := c.handler(ctx, &event); err != nil {
		slog.Error("completion handler failed",
			"event_id", event.EventID,
			"redelivered", redelivered,
			"error", err,
		)
		_ = ack.Reject(!redelivered)
		return
	}

	if err := ack.Ack(false); err != nil {
		slog.Error("failed to ack message", "event_id", event.EventID, "error", err)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

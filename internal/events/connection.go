package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue carries challenge completion events
const DefaultQueue = "mastery.completions"

const maxReconnectAttempts = 10

// ErrNotConnected is returned when publishing while the broker is away
var ErrNotConnected = errors.New("not connected to broker")

// Connection holds an AMQP connection and channel with the completions queue
// declared. When the broker drops the connection it redials in the
// background until Close is called.
type Connection struct {
	url   string
	queue string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection dials the broker and declares the completions queue
func NewConnection(url, queue string) (*Connection, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	c := &Connection{
		url:   url,
		queue: queue,
		done:  make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("connect to broker %s: %w", sanitizeURL(c.url), err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	// Durable so completions survive a broker restart
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("connected to broker", "url", sanitizeURL(c.url), "queue", c.queue)
	return nil
}

// watch waits for the connection to drop and redials with backoff
func (c *Connection) watch(closed <-chan *amqp.Error) {
	select {
	case <-c.done:
		return
	case amqpErr := <-closed:
		if amqpErr == nil {
			return
		}
		slog.Warn("broker connection lost, reconnecting", "error", amqpErr)
	}

	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(reconnectDelay(attempt)):
		}

		if err := c.connect(); err != nil {
			slog.Error("reconnect failed", "error", err, "attempt", attempt+1)
			continue
		}
		slog.Info("reconnected to broker", "attempts", attempt+1)
		return
	}

	slog.Error("giving up on broker", "attempts", maxReconnectAttempts)
}

// reconnectDelay doubles from one second up to thirty
func reconnectDelay(attempt int) time.Duration {
	if attempt > 5 {
		return 30 * time.Second
	}
	return min(time.Duration(1<<attempt)*time.Second, 30*time.Second)
}

// Queue returns the declared queue name
func (c *Connection) Queue() string {
	return c.queue
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close stops reconnecting and closes the connection
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports whether the connection is open
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes data as a persistent JSON message on the queue
func (c *Connection) PublishJSON(ctx context.Context, data any) error {
	msg, err := newPublishing(data, time.Now())
	if err != nil {
		return err
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return ErrNotConnected
	}

	return ch.PublishWithContext(ctx, "", c.queue, false, false, msg)
}

func newPublishing(data any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}
	if e, ok := data.(*ChallengeCompleted); ok {
		msg.MessageId = e.EventID.String()
		msg.Type = EventTypeChallengeCompleted
	}
	return msg, nil
}

// sanitizeURL drops the password from an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid-url"
	}
	return u.Redacted()
}

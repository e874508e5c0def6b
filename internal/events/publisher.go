package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/google/uuid"
)

// EventTypeChallengeCompleted is the AMQP message type of completion events
const EventTypeChallengeCompleted = "mastery.challenge_completed"

// ChallengeCompleted is published the first time a challenge passes
type ChallengeCompleted struct {
	EventID        uuid.UUID `json:"event_id"`
	ChallengeID    string    `json:"challenge_id"`
	Week           int       `json:"week"`
	Day            int       `json:"day"`
	CompletedCount int       `json:"completed_count"`
	CompletedAt    time.Time `json:"completed_at"`
}

// NewChallengeCompleted builds the event for c given the updated progress
func NewChallengeCompleted(c *domain.Challenge, p *domain.UserProgress) *ChallengeCompleted {
	return &ChallengeCompleted{
		EventID:        uuid.New(),
		ChallengeID:    c.ID,
		Week:           c.Week,
		Day:            c.Day,
		CompletedCount: p.CompletedCount(),
		CompletedAt:    time.Now().UTC(),
	}
}

// jsonPublisher is the part of Connection the publisher needs
type jsonPublisher interface {
	PublishJSON(ctx context.Context, data any) error
}

// Publisher sends completion events to the queue
type Publisher struct {
	conn jsonPublisher
}

// NewPublisher creates a publisher on conn
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// ChallengeCompleted publishes a completion event
func (p *Publisher) ChallengeCompleted(ctx context.Context, c *domain.Challenge, progress *domain.UserProgress) error {
	event := NewChallengeCompleted(c, progress)
	if err := p.conn.PublishJSON(ctx, event); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}

	slog.Info("published completion",
		"event_id", event.EventID,
		"challenge_id", event.ChallengeID,
		"completed_count", event.CompletedCount,
	)
	return nil
}

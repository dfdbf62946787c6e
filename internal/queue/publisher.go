package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/google/uuid"
)

// jsonPublisher is the part of Connection the publishers need
type jsonPublisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

var _ interaction.Recorder = (*InteractionPublisher)(nil)

// InteractionPublisher forwards interactions to the interaction queue
type InteractionPublisher struct {
	conn   jsonPublisher
	logger *slog.Logger
}

// NewInteractionPublisher creates a publisher over conn
func NewInteractionPublisher(conn *Connection, logger *slog.Logger) *InteractionPublisher {
	return newInteractionPublisher(conn, logger)
}

func newInteractionPublisher(conn jsonPublisher, logger *slog.Logger) *InteractionPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionPublisher{conn: conn, logger: logger.With("component", "queue")}
}

// Record publishes the interaction
func (p *InteractionPublisher) Record(ctx context.Context, in interaction.Interaction) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	if err := p.conn.PublishJSON(ctx, InteractionQueueName, in); err != nil {
		return fmt.Errorf("publish interaction: %w", err)
	}

	p.logger.Debug("published interaction",
		"id", in.ID,
		"learner_id", in.LearnerID,
		"event", string(in.Event),
	)
	return nil
}

// LessonEventMessage is the wire form of a domain event
type LessonEventMessage struct {
	ID          uuid.UUID    `json:"id"`
	Type        string       `json:"type"`
	SessionID   uuid.UUID    `json:"session_id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	Payload     domain.Event `json:"payload"`
	PublishedAt time.Time    `json:"published_at"`
}

// EventPublisher forwards domain events to the lesson event queue
type EventPublisher struct {
	conn    jsonPublisher
	logger  *slog.Logger
	timeout time.Duration
}

// NewEventPublisher creates a publisher over conn
func NewEventPublisher(conn *Connection, logger *slog.Logger) *EventPublisher {
	return newEventPublisher(conn, logger)
}

func newEventPublisher(conn jsonPublisher, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{conn: conn, logger: logger.With("component", "queue"), timeout: 5 * time.Second}
}

// Publish sends one domain event
func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	msg := LessonEventMessage{
		ID:          event.EventID(),
		Type:        event.EventType(),
		SessionID:   event.SessionID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event,
		PublishedAt: time.Now().UTC(),
	}
	if err := p.conn.PublishJSON(ctx, LessonEventQueueName, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}
	return nil
}

// Handler adapts the publisher to a domain.EventDispatcher subscription.
// Failures are logged since dispatch has no error path.
func (p *EventPublisher) Handler() domain.EventHandler {
	return func(event domain.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			p.logger.Warn("lesson event not published", "type", event.EventType(), "error", err)
		}
	}
}

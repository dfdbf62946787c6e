package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/lingo/internal/interaction"
	amqp "github.com/rabbitmq/amqp091-go"
)

// InteractionHandler processes one consumed interaction
type InteractionHandler func(ctx context.Context, in interaction.Interaction) error

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // concurrent workers
	Prefetch int // unacked messages per channel
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 10,
	}
}

// Consumer drains the interaction queue into a handler, typically a
// persistent interaction store
type Consumer struct {
	conn       *Connection
	handler    InteractionHandler
	logger     *slog.Logger
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConsumer creates a new interaction consumer
func NewConsumer(conn *Connection, handler InteractionHandler, cfg ConsumerConfig, logger *slog.Logger) *Consumer {
	defaults := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = defaults.Prefetch
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		logger:   logger.With("component", "queue"),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		InteractionQueueName,
		"",    // consumer tag (auto-generated)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("starting interaction consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Info("message channel closed", "worker_id", id)
				return
			}
			c.settle(msg, c.process(ctx, msg.Body), msg.Redelivered)
		}
	}
}

// outcome of handling one delivery
type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeReject
)

// process decodes and handles a message body
func (c *Consumer) process(ctx context.Context, body []byte) error {
	var in interaction.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return c.handler(ctx, in)
}

func (c *Consumer) settle(msg amqp.Delivery, err error, redelivered bool) {
	var ackErr error
	switch decide(err, redelivered) {
	case outcomeAck:
		ackErr = msg.Ack(false)
	case outcomeRequeue:
		c.logger.Warn("interaction handler failed, requeueing", "error", err)
		ackErr = msg.Nack(false, true)
	case outcomeReject:
		c.logger.Error("dropping interaction", "error", err)
		ackErr = msg.Reject(false)
	}
	if ackErr != nil {
		c.logger.Error("failed to settle message", "error", ackErr)
	}
}

// decide maps a handler result to an acknowledgement. Malformed messages
// are dropped; other failures get one redelivery.
func decide(err error, redelivered bool) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case isMalformed(err), redelivered:
		return outcomeReject
	default:
		return outcomeRequeue
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	c.logger.Info("consumer stopped")
}

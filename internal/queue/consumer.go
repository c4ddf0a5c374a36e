package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one event message
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer reads event messages from one or more queues with a worker pool
type Consumer struct {
	conn       *Connection
	handler    MessageHandler
	queues     []string
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Queues         []string      // empty means every event queue
	Workers        int           // concurrent workers per queue
	Prefetch       int           // unacked messages per channel
	HandlerTimeout time.Duration // deadline for one handler call
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Queues:         []string{GameCompletedQueue, DifficultyChangedQueue, PlayerRegisteredQueue},
		Workers:        2,
		Prefetch:       4,
		HandlerTimeout: 30 * time.Second,
	}
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	def := DefaultConsumerConfig()
	if len(cfg.Queues) == 0 {
		cfg.Queues = def.Queues
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}
	return cfg
}

// NewConsumer creates a new event consumer
func NewConsumer(conn *Connection, handler MessageHandler, cfg ConsumerConfig) *Consumer {
	cfg = cfg.withDefaults()
	return &Consumer{
		conn:     conn,
		handler:  handler,
		queues:   cfg.Queues,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.HandlerTimeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()
	if ch == nil {
		return fmt.Errorf("consumer: no open channel")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	for _, queue := range c.queues {
		msgs, err := ch.Consume(
			queue,
			"",    // consumer tag (auto-generated)
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		if err != nil {
			c.cancelFunc()
			c.wg.Wait()
			return fmt.Errorf("failed to consume %s: %w", queue, err)
		}

		for i := 0; i < c.workers; i++ {
			c.wg.Add(1)
			go c.worker(ctx, queue, i, msgs)
		}
	}

	slog.Info("event consumer started",
		"queues", c.queues,
		"workers", c.workers,
		"prefetch", c.prefetch)
	return nil
}

func (c *Consumer) worker(ctx context.Context, queue string, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				slog.Info("delivery channel closed", "queue", queue, "worker_id", id)
				return
			}
			c.processDelivery(ctx, queue, d)
		}
	}
}

// processDelivery acks handled messages, rejects malformed ones and requeues
// a failed message once.
func (c *Consumer) processDelivery(ctx context.Context, queue string, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		slog.Error("failed to unmarshal event", "queue", queue, "error", err)
		_ = d.Reject(false)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.handler(hctx, &msg); err != nil {
		requeue := !d.Redelivered
		slog.Error("event handler failed",
			"queue", queue,
			"event_id", msg.ID,
			"type", msg.Type,
			"requeue", requeue,
			"error", err)
		_ = d.Nack(false, requeue)
		return
	}

	if err := d.Ack(false); err != nil {
		slog.Error("failed to ack event", "event_id", msg.ID, "error", err)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("event consumer stopped")
}

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// Publisher is the part of Connection the producer needs
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	BufferSize     int           // events held while the broker is slow
	PublishTimeout time.Duration // per-event publish deadline
	TripAfter      uint32        // consecutive failures that open the breaker
	OpenTimeout    time.Duration // how long the breaker stays open
}

// DefaultProducerConfig returns sensible defaults
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
		TripAfter:      3,
		OpenTimeout:    30 * time.Second,
	}
}

// Producer publishes domain events to RabbitMQ. Events arriving through
// Forward are buffered and published by a single background goroutine so
// request handlers never wait on the broker.
type Producer struct {
	pub     Publisher
	cfg     ProducerConfig
	breaker circuitbreaker.CircuitBreaker[struct{}]
	events  chan domain.Event
	dropped atomic.Int64

	// mu orders enqueues against Stop so no event lands after the drain.
	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProducer creates a new event producer
func NewProducer(pub Publisher, cfg ProducerConfig) *Producer {
	def := DefaultProducerConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = def.TripAfter
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	p := &Producer{
		pub:    pub,
		cfg:    cfg,
		events: make(chan domain.Event, cfg.BufferSize),
	}
	p.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			slog.Warn("event publisher circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})
	return p
}

// PublishEvent publishes one event to its queue
func (p *Producer) PublishEvent(ctx context.Context, e domain.Event) error {
	queue, ok := QueueFor(e.EventType())
	if !ok {
		return fmt.Errorf("no queue for event type %q", e.EventType())
	}

	msg, err := NewMessage(e)
	if err != nil {
		return err
	}

	_, err = p.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.pub.PublishJSON(ctx, queue, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.EventType(), err)
	}

	slog.Debug("published event",
		"event_id", msg.ID,
		"type", msg.Type,
		"aggregate_id", msg.AggregateID,
	)
	return nil
}

// Forward subscribes the producer to every event the dispatcher publishes
func (p *Producer) Forward(d *domain.EventDispatcher) {
	d.SubscribeAll(p.enqueue)
}

func (p *Producer) enqueue(e domain.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.dropped.Add(1)
		slog.Warn("event producer stopped, dropping event",
			"type", e.EventType(),
			"event_id", e.EventID())
		return
	}

	select {
	case p.events <- e:
	default:
		p.dropped.Add(1)
		slog.Warn("event buffer full, dropping event",
			"type", e.EventType(),
			"event_id", e.EventID())
	}
}

// Dropped returns how many events were discarded, either because the buffer
// was full or because they arrived after Stop
func (p *Producer) Dropped() int64 {
	return p.dropped.Load()
}

// Start begins publishing buffered events
func (p *Producer) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(ctx)
}

func (p *Producer) loop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case e := <-p.events:
			p.deliver(e)
		}
	}
}

// drain publishes whatever is still buffered at shutdown
func (p *Producer) drain() {
	for {
		select {
		case e := <-p.events:
			p.deliver(e)
		default:
			return
		}
	}
}

func (p *Producer) deliver(e domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, e); err != nil {
		slog.Error("event not published",
			"type", e.EventType(),
			"event_id", e.EventID(),
			"error", err)
	}
}

// Stop flushes buffered events and stops the background publisher
func (p *Producer) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	slog.Info("event producer stopped", "dropped", p.dropped.Load())
}

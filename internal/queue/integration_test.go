//go:build integration

package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/queue"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) string {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get AMQP URL: %v", err)
	}
	return amqpURL
}

func connect(t *testing.T, url string) *queue.Connection {
	t.Helper()
	conn, err := queue.NewConnection(url)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func completed(userID uuid.UUID, score int) domain.Event {
	r := domain.NewGameResult(userID, domain.GameLogicPuzzles,
		domain.Outcome{Score: score, CorrectAnswers: 6, TotalQuestions: 10, TimeTaken: 80}, 4, time.Now())
	return domain.NewGameCompletedEvent(r)
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	conn, err := queue.NewConnection(setupRabbitMQ(t))
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
	if conn.IsConnected() {
		t.Error("expected connection to be closed")
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	if _, err := queue.NewConnection("amqp://invalid:5672"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Connection_DeclaresQueues(t *testing.T) {
	conn := connect(t, setupRabbitMQ(t))

	for _, name := range []string{queue.GameCompletedQueue, queue.DifficultyChangedQueue, queue.PlayerRegisteredQueue} {
		q, err := conn.Channel().QueueDeclarePassive(name, true, false, false, false, nil)
		if err != nil {
			t.Fatalf("queue %s not declared: %v", name, err)
		}
		if q.Messages != 0 {
			t.Errorf("queue %s has %d messages; want 0", name, q.Messages)
		}
	}
}

func TestIntegration_ProducerToConsumer(t *testing.T) {
	url := setupRabbitMQ(t)
	pubConn := connect(t, url)
	subConn := connect(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var mu sync.Mutex
	received := map[string]int{}
	done := make(chan struct{}, 8)

	consumer := queue.NewConsumer(subConn, func(_ context.Context, msg *queue.Message) error {
		mu.Lock()
		received[msg.Type]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, queue.ConsumerConfig{Workers: 2})
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := queue.NewProducer(pubConn, queue.DefaultProducerConfig())
	dispatcher := domain.NewEventDispatcher()
	producer.Forward(dispatcher)
	producer.Start(ctx)

	userID := uuid.New()
	p, _ := domain.NewPlayer(userID, "hopper", time.Now())
	dispatcher.PublishAll([]domain.Event{
		domain.NewPlayerRegisteredEvent(p),
		completed(userID, 60),
		completed(userID, 70),
		domain.NewDifficultyChangedEvent(userID, domain.GameLogicPuzzles, 4, 4.5),
	})
	producer.Stop()

	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if received[domain.EventGameCompleted] != 2 {
		t.Errorf("game.completed received %d; want 2", received[domain.EventGameCompleted])
	}
	if received[domain.EventDifficultyChanged] != 1 || received[domain.EventPlayerRegistered] != 1 {
		t.Errorf("received = %v", received)
	}
}

func TestIntegration_Consumer_HandlerErrorRequeuesOnce(t *testing.T) {
	url := setupRabbitMQ(t)
	conn := connect(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var attempts atomic.Int32
	seen := make(chan struct{}, 4)
	consumer := queue.NewConsumer(conn, func(context.Context, *queue.Message) error {
		attempts.Add(1)
		seen <- struct{}{}
		return errors.New("analytics sink unavailable")
	}, queue.ConsumerConfig{Queues: []string{queue.GameCompletedQueue}, Workers: 1})
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := queue.NewProducer(conn, queue.DefaultProducerConfig())
	if err := producer.PublishEvent(ctx, completed(uuid.New(), 50)); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-seen:
		case <-ctx.Done():
			t.Fatalf("timeout waiting for delivery %d", i+1)
		}
	}

	// The redelivered copy is dropped, so no third attempt arrives.
	select {
	case <-seen:
		t.Error("message delivered a third time")
	case <-time.After(2 * time.Second):
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d; want 2", got)
	}
}

func TestIntegration_Connection_PublishJSON(t *testing.T) {
	conn := connect(t, setupRabbitMQ(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := queue.NewMessage(completed(uuid.New(), 90))
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if err := conn.PublishJSON(ctx, queue.GameCompletedQueue, msg); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		q, err := conn.Channel().QueueDeclarePassive(queue.GameCompletedQueue, true, false, false, false, nil)
		if err != nil {
			t.Fatalf("inspect queue: %v", err)
		}
		if q.Messages == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("queue depth = %d; want 1", q.Messages)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

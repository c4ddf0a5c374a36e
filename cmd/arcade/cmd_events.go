package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/brainarcade/internal/config"
	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/queue"
)

var eventQueues = map[string]string{
	"game":       queue.GameCompletedQueue,
	"difficulty": queue.DifficultyChangedQueue,
	"player":     queue.PlayerRegisteredQueue,
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow engine events from RabbitMQ",
		Long: `Follow the events the daemon publishes to RabbitMQ until interrupted.
Messages are consumed, so run only one follower per queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := rabbitURL()
			if err != nil {
				return err
			}

			names, _ := cmd.Flags().GetStringSlice("queue")
			queues, err := selectQueues(names)
			if err != nil {
				return err
			}

			var only uuid.UUID
			if raw, _ := cmd.Flags().GetString("player"); raw != "" {
				if only, err = uuid.Parse(raw); err != nil {
					return fmt.Errorf("invalid player id %q: %w", raw, err)
				}
			}

			conn, err := queue.NewConnection(url)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			consumer := queue.NewConsumer(conn, func(ctx context.Context, msg *queue.Message) error {
				if only != uuid.Nil && !messageFor(msg, only) {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintln(out, formatMessage(msg))
				return nil
			}, queue.ConsumerConfig{Queues: queues, Workers: 1})

			if err := consumer.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Following events (Ctrl+C to stop)...")
			<-ctx.Done()
			consumer.Stop()
			return nil
		},
	}
	cmd.Flags().StringSlice("queue", nil, "Queues to follow: game, difficulty, player (default: all)")
	return cmd
}

// rabbitURL reads RABBITMQ_URL the same way the daemon does
func rabbitURL() (string, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return "", err
	}
	config.ApplyEnv(cfg)
	if cfg.Services.RabbitMQURL == "" {
		return "", fmt.Errorf("RabbitMQ is not configured (set RABBITMQ_URL or secrets.yaml rabbitmq_url)")
	}
	return cfg.Services.RabbitMQURL, nil
}

func selectQueues(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	queues := make([]string, 0, len(names))
	for _, n := range names {
		q, ok := eventQueues[n]
		if !ok {
			return nil, fmt.Errorf("unknown queue %q (want game, difficulty or player)", n)
		}
		queues = append(queues, q)
	}
	return queues, nil
}

// messageFor reports whether msg concerns the given player
func messageFor(msg *queue.Message, player uuid.UUID) bool {
	if msg.Type == domain.EventGameCompleted {
		var e domain.GameCompletedEvent
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return false
		}
		return e.UserID == player
	}
	return msg.AggregateID == player
}

func formatMessage(msg *queue.Message) string {
	ts := msg.OccurredAt.Local().Format("15:04:05")

	switch msg.Type {
	case domain.EventGameCompleted:
		var e domain.GameCompletedEvent
		if json.Unmarshal(msg.Payload, &e) == nil {
			return fmt.Sprintf("%s  game       %s  %s score %d (%d%%) at level %.1f",
				ts, shortID(e.UserID), e.GameType.DisplayName(), e.Score, e.AccuracyPercent, e.DifficultyAtPlay)
		}
	case domain.EventDifficultyChanged:
		var e domain.DifficultyChangedEvent
		if json.Unmarshal(msg.Payload, &e) == nil {
			return fmt.Sprintf("%s  difficulty %s  %s %.1f → %.1f",
				ts, shortID(msg.AggregateID), e.GameType.DisplayName(), e.From, e.To)
		}
	case domain.EventPlayerRegistered:
		var e domain.PlayerRegisteredEvent
		if json.Unmarshal(msg.Payload, &e) == nil {
			return fmt.Sprintf("%s  player     %s  registered %s", ts, shortID(msg.AggregateID), e.Username)
		}
	}
	return fmt.Sprintf("%s  %-10s %s", ts, msg.Type, shortID(msg.AggregateID))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/brainarcade/internal/config"
	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/lock"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
	"github.com/felixgeelhaar/brainarcade/internal/queue"
	"github.com/felixgeelhaar/brainarcade/internal/storage/postgres"
	"github.com/felixgeelhaar/brainarcade/internal/storage/sqlite"
)

// backends holds the storage, lock and event plumbing selected by config.
// Only storage is mandatory; Redis and RabbitMQ are used when configured.
type backends struct {
	store      performance.Store
	locker     performance.Locker
	producer   *queue.Producer
	components map[string]string

	closers []func() error
}

func openBackends(ctx context.Context, cfg *config.LocalConfig) (_ *backends, err error) {
	b := &backends{components: make(map[string]string)}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if err := b.openStore(ctx, cfg); err != nil {
		return nil, err
	}
	if err := b.openLocker(ctx, cfg); err != nil {
		return nil, err
	}
	if err := b.openQueue(cfg); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backends) openStore(ctx context.Context, cfg *config.LocalConfig) error {
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := postgres.Connect(ctx, cfg.Services.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, func() error { pg.Close(); return nil })
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		b.store = pg
		b.components["storage"] = "postgres"

	default:
		path, err := cfg.SQLitePath()
		if err != nil {
			return err
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		b.store = sqlite.NewPerformanceStore(db)
		b.components["storage"] = "sqlite"
		slog.Info("using sqlite storage", "path", path)
	}
	return nil
}

func (b *backends) openLocker(ctx context.Context, cfg *config.LocalConfig) error {
	if cfg.Services.RedisAddr == "" {
		b.locker = lock.NewLocal()
		b.components["lock"] = "local"
		return nil
	}

	r, err := lock.NewRedis(ctx, cfg.Services.RedisAddr, cfg.Engine.LockTTL())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	b.closers = append(b.closers, r.Close)
	b.locker = r
	b.components["lock"] = "redis"
	return nil
}

// openQueue never fails the daemon: events are best effort, so an
// unreachable broker only disables publishing.
func (b *backends) openQueue(cfg *config.LocalConfig) error {
	if cfg.Services.RabbitMQURL == "" {
		b.components["events"] = "disabled"
		return nil
	}

	conn, err := queue.NewConnection(cfg.Services.RabbitMQURL)
	if err != nil {
		slog.Warn("rabbitmq unavailable, event publishing disabled", "error", err)
		b.components["events"] = "unavailable"
		return nil
	}
	b.closers = append(b.closers, conn.Close)

	b.useProducer(queue.NewProducer(conn, queue.DefaultProducerConfig()))
	b.components["events"] = "rabbitmq"
	return nil
}

// useProducer registers p so Close flushes it before the connection closes
func (b *backends) useProducer(p *queue.Producer) {
	b.producer = p
	b.closers = append(b.closers, func() error { p.Stop(); return nil })
}

// startEvents forwards dispatched events to the broker. The producer is
// not tied to the signal context: it keeps publishing while the HTTP
// server drains and stops only when Close runs.
func (b *backends) startEvents(d *domain.EventDispatcher) {
	if b.producer == nil {
		return
	}
	b.producer.Forward(d)
	b.producer.Start(context.Background())
}

// Close releases backends in reverse order of opening
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/brainarcade/internal/config"
	"github.com/felixgeelhaar/brainarcade/internal/daemon"
	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

const (
	pidFileName     = "arcaded.pid"
	shutdownTimeout = 30 * time.Second
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	arcadeDir, err := config.EnsureArcadeDir()
	if err != nil {
		return fmt.Errorf("ensure arcade dir: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := setupLogging(arcadeDir, parseLogLevel(cfg.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	pidPath := filepath.Join(arcadeDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	dispatcher := domain.NewEventDispatcher()
	dispatcher.SubscribeAll(logEvent)
	b.startEvents(dispatcher)

	engine := performance.NewService(b.store, performance.Config{
		RecentResults:       cfg.Engine.RecentResults,
		HistoryLimit:        cfg.Engine.HistoryLimit,
		ChartDays:           cfg.Engine.ChartDays,
		RetryAttempts:       cfg.Engine.RetryAttempts,
		MaxConcurrentWrites: cfg.Engine.MaxConcurrentWrites,
	}, performance.WithLocker(b.locker), performance.WithPublisher(dispatcher))

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:     cfg,
		Engine:     engine,
		Version:    Version,
		Components: b.components,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("arcade daemon starting", "version", Version, "components", b.components)
	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func logEvent(e domain.Event) {
	slog.Debug("domain event", "type", e.EventType(), "aggregate_id", e.AggregateID())
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/brainarcade/internal/config"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

// Server represents the arcade daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter

	engine     performance.Engine
	version    string
	components map[string]string
	started    time.Time
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	Engine  performance.Engine
	Version string

	// Components names the active backends for /v1/status,
	// e.g. storage=sqlite, lock=redis, events=rabbitmq.
	Components map[string]string
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("daemon: config is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("daemon: engine is required")
	}

	s := &Server{
		cfg:        cfg.Config,
		router:     http.NewServeMux(),
		engine:     cfg.Engine,
		version:    cfg.Version,
		components: cfg.Components,
		started:    time.Now(),
	}
	if s.version == "" {
		s.version = "dev"
	}

	if rl := cfg.Config.RateLimit; rl.Enabled {
		burst := rl.Burst
		if burst <= 0 {
			burst = rl.RequestsPerSecond * 2
		}
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.RequestsPerSecond,
			Burst:    burst,
			Interval: time.Second,
		})
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      chain(s.router, s.limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the full middleware chain around the router
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Catalog
	s.router.HandleFunc("GET /v1/games", s.handleListGames)

	// Players
	s.router.HandleFunc("POST /v1/players", s.handleRegisterPlayer)
	s.router.HandleFunc("GET /v1/players/{userID}/dashboard", s.handleDashboard)
	s.router.HandleFunc("GET /v1/players/{userID}/recommendations", s.handleRecommendations)
	s.router.HandleFunc("GET /v1/players/{userID}/chart", s.handleChart)

	// Per game
	s.router.HandleFunc("GET /v1/players/{userID}/games/{gameType}/config", s.handleGetGameConfig)
	s.router.HandleFunc("POST /v1/players/{userID}/games/{gameType}/results", s.handleRecordResult)
	s.router.HandleFunc("GET /v1/players/{userID}/games/{gameType}/history", s.handleHistory)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting arcade daemon",
		"addr", s.server.Addr,
		"version", s.version,
		"components", s.components,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)
	if s.limiter != nil {
		if cerr := s.limiter.Close(); cerr != nil {
			slog.Warn("failed to close rate limiter", "error", cerr)
		}
	}
	return err
}

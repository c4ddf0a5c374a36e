package performance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
	"github.com/felixgeelhaar/brainarcade/internal/lock"
)

// EventPublisher receives domain events after a write commits.
// *domain.EventDispatcher satisfies it.
type EventPublisher interface {
	PublishAll(events []domain.Event)
}

// Config tunes the service. Zero fields fall back to DefaultConfig.
type Config struct {
	// RecentResults is how many games the dashboard lists (default: 20)
	RecentResults int

	// HistoryLimit is the GetHistory page size when none is given (default: 10)
	HistoryLimit int

	// ChartDays is the GetChartData window when none is given (default: 30)
	ChartDays int

	// RetryAttempts bounds retries of a failed write transaction (default: 3)
	RetryAttempts int

	// MaxConcurrentWrites bounds in-flight write transactions (default: 8)
	MaxConcurrentWrites int
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		RecentResults:       20,
		HistoryLimit:        10,
		ChartDays:           30,
		RetryAttempts:       3,
		MaxConcurrentWrites: 8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RecentResults <= 0 {
		c.RecentResults = d.RecentResults
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.ChartDays <= 0 {
		c.ChartDays = d.ChartDays
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.MaxConcurrentWrites <= 0 {
		c.MaxConcurrentWrites = d.MaxConcurrentWrites
	}
	return c
}

// Option customizes a Service
type Option func(*Service)

// WithLocker replaces the in-process per-player lock
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithPublisher sets where committed events are sent
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// RecordResult reports how a submitted game changed the player's difficulty.
type RecordResult struct {
	Result             *domain.GameResult    `json:"result"`
	PreviousDifficulty float64               `json:"previousDifficulty"`
	NewDifficulty      float64               `json:"newDifficulty"`
	DifficultyChanged  bool                  `json:"difficultyChanged"`
	AccuracyPercent    int                   `json:"accuracy"`
	Stats              *domain.GameTypeStats `json:"stats"`
	WeakAreas          []domain.WeakArea     `json:"weakAreas"`
}

// Service implements the adaptive difficulty engine over a Store.
type Service struct {
	store     Store
	locker    Locker
	publisher EventPublisher
	cfg       Config
	now       func() time.Time

	adjuster   *domain.DifficultyAdjuster
	aggregator *domain.StatsAggregator
	analyzer   *domain.WeaknessAnalyzer
	ranker     *domain.RecommendationRanker

	retrier retry.Retry[*RecordResult]
	writes  bulkhead.Bulkhead[*RecordResult]
}

// NewService creates a new performance service
func NewService(store Store, cfg Config, opts ...Option) *Service {
	cfg = cfg.withDefaults()

	s := &Service{
		store:      store,
		locker:     lock.NewLocal(),
		cfg:        cfg,
		now:        time.Now,
		adjuster:   domain.NewDifficultyAdjuster(),
		aggregator: domain.NewStatsAggregator(),
		analyzer:   domain.NewWeaknessAnalyzer(),
		ranker:     domain.NewRecommendationRanker(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.retrier = retry.New[*RecordResult](retry.Config{
		MaxAttempts:   cfg.RetryAttempts,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable: func(err error) bool {
			return errors.Is(err, domain.ErrStorageFailure)
		},
	})
	s.writes = bulkhead.New[*RecordResult](bulkhead.Config{
		MaxConcurrent: cfg.MaxConcurrentWrites,
		MaxQueue:      cfg.MaxConcurrentWrites * 8,
		QueueTimeout:  10 * time.Second,
	})

	return s
}

// RegisterPlayer creates a player with every skill level at the minimum.
// A nil id asks the service to generate one.
func (s *Service) RegisterPlayer(ctx context.Context, id uuid.UUID, username string) (*domain.Player, error) {
	player, err := domain.NewPlayer(id, username, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}

	slog.Info("player registered", "user_id", player.ID, "username", player.Username)
	s.publish([]domain.Event{domain.NewPlayerRegisteredEvent(player)})

	return player, nil
}

// GetConfig returns the difficulty and generation parameters for the
// player's next game. Unknown players get the default difficulty.
func (s *Service) GetConfig(ctx context.Context, userID uuid.UUID, gt domain.GameType) (*gameconfig.Config, error) {
	if !gt.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGameType, gt)
	}

	levels, err := s.skillLevels(ctx, userID)
	if err != nil {
		return nil, err
	}

	cfg, err := gameconfig.Derive(gt, levels.Level(gt))
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RecordGameResult appends the result, adjusts the skill level and folds
// the game into the player's statistics. All three writes commit together
// under the player's lock; a storage failure leaves no partial state and
// is retried from a fresh read.
func (s *Service) RecordGameResult(ctx context.Context, userID uuid.UUID, gt domain.GameType, outcome domain.Outcome) (*RecordResult, error) {
	if !gt.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGameType, gt)
	}
	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "player:"+userID.String())
	if err != nil {
		return nil, fmt.Errorf("lock player: %w", err)
	}
	defer unlock()

	// lastErr keeps the sentinel visible to callers whatever the
	// resilience wrappers do with the error they return.
	var lastErr error
	res, err := s.writes.Execute(ctx, func(ctx context.Context) (*RecordResult, error) {
		return s.retrier.Do(ctx, func(ctx context.Context) (*RecordResult, error) {
			res, err := s.recordOnce(ctx, userID, gt, outcome)
			lastErr = err
			if err != nil && errors.Is(err, domain.ErrStorageFailure) {
				slog.Warn("record game result failed, retrying",
					"user_id", userID, "game_type", gt, "error", err)
			}
			return res, err
		})
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("record game result: %w", err)
	}

	slog.Info("game recorded",
		"user_id", userID,
		"game_type", gt,
		"score", outcome.Score,
		"accuracy", res.AccuracyPercent,
		"difficulty_from", res.PreviousDifficulty,
		"difficulty_to", res.NewDifficulty)

	events := []domain.Event{domain.NewGameCompletedEvent(res.Result)}
	if res.DifficultyChanged {
		events = append(events, domain.NewDifficultyChangedEvent(userID, gt, res.PreviousDifficulty, res.NewDifficulty))
	}
	s.publish(events)

	return res, nil
}

func (s *Service) recordOnce(ctx context.Context, userID uuid.UUID, gt domain.GameType, outcome domain.Outcome) (*RecordResult, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	player, err := tx.GetPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record, err := tx.GetPerformance(ctx, userID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		record = domain.NewPerformanceRecord(userID, now)
	} else if err != nil {
		return nil, err
	}

	previous := player.SkillLevels.Level(gt)
	accuracy, avgTime := domain.Performance(outcome.CorrectAnswers, outcome.TotalQuestions, outcome.TimeTaken)
	next := s.adjuster.Adjust(previous, accuracy, avgTime)

	result := domain.NewGameResult(userID, gt, outcome, previous, now)
	if err := tx.AppendResult(ctx, result); err != nil {
		return nil, err
	}
	if err := tx.SaveSkillLevel(ctx, userID, gt, next); err != nil {
		return nil, err
	}

	stats := s.aggregator.Apply(record.StatsFor(gt), outcome.Score, accuracy, outcome.TimeTaken, now)
	record.WeakAreas = s.analyzer.RecomputeWeakAreas(record.Stats, now)
	record.UpdatedAt = now
	if err := tx.SavePerformance(ctx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return &RecordResult{
		Result:             result,
		PreviousDifficulty: previous,
		NewDifficulty:      next,
		DifficultyChanged:  next != previous,
		AccuracyPercent:    int(math.Round(accuracy * 100)),
		Stats:              stats,
		WeakAreas:          record.WeakAreas,
	}, nil
}

// GetRecommendations ranks suggestions from the player's statistics with
// decay measured at the current time.
func (s *Service) GetRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	levels, err := s.skillLevels(ctx, userID)
	if err != nil {
		return nil, err
	}
	record, err := s.performance(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.analyzer.RefreshDecay(record.Stats, s.now().UTC())
	return s.ranker.Recommend(record.Stats, levels), nil
}

// GetHistory returns the player's latest results for gt, newest first.
func (s *Service) GetHistory(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	if !gt.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGameType, gt)
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}

	results, err := s.store.RecentResults(ctx, userID, gt, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return results, nil
}

// skillLevels returns the stored levels, or defaults for an unknown player.
func (s *Service) skillLevels(ctx context.Context, userID uuid.UUID) (domain.SkillLevels, error) {
	player, err := s.store.GetPlayer(ctx, userID)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.NewSkillLevels(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return player.SkillLevels, nil
}

// performance returns the stored record, or an empty one.
func (s *Service) performance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	record, err := s.store.GetPerformance(ctx, userID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NewPerformanceRecord(userID, s.now().UTC()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	return record, nil
}

func (s *Service) publish(events []domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	s.publisher.PublishAll(events)
}

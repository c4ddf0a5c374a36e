package performance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
)

// Engine defines the performance operations used by the daemon handlers
// and the MCP tools.
type Engine interface {
	// RegisterPlayer creates a player with default skill levels
	RegisterPlayer(ctx context.Context, id uuid.UUID, username string) (*domain.Player, error)

	// GetConfig returns the current difficulty and generation parameters
	GetConfig(ctx context.Context, userID uuid.UUID, gt domain.GameType) (*gameconfig.Config, error)

	// RecordGameResult applies a finished game atomically for the player
	RecordGameResult(ctx context.Context, userID uuid.UUID, gt domain.GameType, outcome domain.Outcome) (*RecordResult, error)

	// GetDashboard returns skill levels, stats with fresh decay, weak areas and recent games
	GetDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error)

	// GetRecommendations returns at most five ranked suggestions
	GetRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error)

	// GetHistory returns the most recent results for one game type
	GetHistory(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error)

	// GetChartData returns per-day averages for the last days
	GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]ChartDay, error)
}

// Ensure Service implements Engine
var _ Engine = (*Service)(nil)

// Reader is the read side of the persistence layer.
type Reader interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error)
	GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error)
}

// Store persists players, skill levels, performance records and the
// append-only result log. The SQLite and Postgres stores implement it.
type Store interface {
	Reader

	CreatePlayer(ctx context.Context, p *domain.Player) error
	RecentResults(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error)
	ResultsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.GameResult, error)

	// Begin starts a unit of work. Everything written through the returned
	// Tx becomes visible together on Commit.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work over a single player's state.
type Tx interface {
	Reader

	AppendResult(ctx context.Context, r *domain.GameResult) error
	SaveSkillLevel(ctx context.Context, userID uuid.UUID, gt domain.GameType, level float64) error
	SavePerformance(ctx context.Context, rec *domain.PerformanceRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Locker serializes work per key across goroutines, or across processes
// when backed by Redis.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

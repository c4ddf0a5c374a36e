package daemon

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

var errNotImplemented = errors.New("mock: not implemented")

// mockEngine implements performance.Engine for testing
type mockEngine struct {
	registerFn        func(ctx context.Context, id uuid.UUID, username string) (*domain.Player, error)
	getConfigFn       func(ctx context.Context, userID uuid.UUID, gt domain.GameType) (*gameconfig.Config, error)
	recordFn          func(ctx context.Context, userID uuid.UUID, gt domain.GameType, o domain.Outcome) (*performance.RecordResult, error)
	dashboardFn       func(ctx context.Context, userID uuid.UUID) (*performance.Dashboard, error)
	recommendationsFn func(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error)
	historyFn         func(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error)
	chartFn           func(ctx context.Context, userID uuid.UUID, days int) ([]performance.ChartDay, error)
}

var _ performance.Engine = (*mockEngine)(nil)

func (m *mockEngine) RegisterPlayer(ctx context.Context, id uuid.UUID, username string) (*domain.Player, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, id, username)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) GetConfig(ctx context.Context, userID uuid.UUID, gt domain.GameType) (*gameconfig.Config, error) {
	if m.getConfigFn != nil {
		return m.getConfigFn(ctx, userID, gt)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) RecordGameResult(ctx context.Context, userID uuid.UUID, gt domain.GameType, o domain.Outcome) (*performance.RecordResult, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, userID, gt, o)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) GetDashboard(ctx context.Context, userID uuid.UUID) (*performance.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) GetRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	if m.recommendationsFn != nil {
		return m.recommendationsFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) GetHistory(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, gt, limit)
	}
	return nil, errNotImplemented
}

func (m *mockEngine) GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]performance.ChartDay, error) {
	if m.chartFn != nil {
		return m.chartFn(ctx, userID, days)
	}
	return nil, errNotImplemented
}

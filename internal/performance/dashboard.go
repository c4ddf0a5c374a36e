package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// PlayerSummary identifies the dashboard owner.
type PlayerSummary struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username,omitempty"`
	SkillLevels domain.SkillLevels `json:"skillLevels"`
	MemberSince *time.Time         `json:"memberSince,omitempty"`
}

// Dashboard is the aggregate view of a player's progress.
type Dashboard struct {
	Player      PlayerSummary                             `json:"player"`
	Stats       map[domain.GameType]*domain.GameTypeStats `json:"stats"`
	WeakAreas   []domain.WeakArea                         `json:"weakAreas"`
	RecentGames []*domain.GameResult                      `json:"recentGames"`
}

// GetDashboard loads the player, the performance record and the most recent
// games concurrently. Skill decay is measured at the current time in the
// response only; stored values are left untouched.
func (s *Service) GetDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	var (
		player *domain.Player
		record *domain.PerformanceRecord
		recent []*domain.GameResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetPlayer(gctx, userID)
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get player: %w", err)
		}
		player = p
		return nil
	})
	g.Go(func() error {
		r, err := s.performance(gctx, userID)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	g.Go(func() error {
		r, err := s.store.RecentResults(gctx, userID, "", s.cfg.RecentResults)
		if err != nil {
			return fmt.Errorf("recent results: %w", err)
		}
		recent = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := PlayerSummary{ID: userID, SkillLevels: domain.NewSkillLevels()}
	if player != nil {
		created := player.CreatedAt
		summary.Username = player.Username
		summary.SkillLevels = player.SkillLevels
		summary.MemberSince = &created
	}

	s.analyzer.RefreshDecay(record.Stats, s.now().UTC())

	if recent == nil {
		recent = []*domain.GameResult{}
	}
	weak := record.WeakAreas
	if weak == nil {
		weak = []domain.WeakArea{}
	}

	return &Dashboard{
		Player:      summary,
		Stats:       record.Stats,
		WeakAreas:   weak,
		RecentGames: recent,
	}, nil
}

// ChartPoint summarizes one game type on one day.
type ChartPoint struct {
	AvgScore    int `json:"avgScore"`
	AvgAccuracy int `json:"avgAccuracy"` // percent
	GamesPlayed int `json:"gamesPlayed"`
}

// ChartDay groups a UTC calendar day's games by type.
type ChartDay struct {
	Date  string                         `json:"date"` // YYYY-MM-DD
	Games map[domain.GameType]ChartPoint `json:"games"`
}

// GetChartData averages the player's results per UTC day over the last
// days, oldest day first. Only game types played on a day appear in it.
func (s *Service) GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]ChartDay, error) {
	if days <= 0 {
		days = s.cfg.ChartDays
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	results, err := s.store.ResultsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("chart results: %w", err)
	}

	return BuildChart(results), nil
}

type chartSums struct {
	score, accuracy float64
	n               int
}

// BuildChart groups results by UTC date and game type.
func BuildChart(results []*domain.GameResult) []ChartDay {
	byDay := make(map[string]map[domain.GameType]*chartSums)
	for _, r := range results {
		day := r.PlayedAt.UTC().Format(time.DateOnly)
		games, ok := byDay[day]
		if !ok {
			games = make(map[domain.GameType]*chartSums)
			byDay[day] = games
		}
		sums, ok := games[r.GameType]
		if !ok {
			sums = &chartSums{}
			games[r.GameType] = sums
		}
		sums.score += float64(r.Score)
		sums.accuracy += r.AccuracyPercent()
		sums.n++
	}

	out := make([]ChartDay, 0, len(byDay))
	for day, games := range byDay {
		cd := ChartDay{Date: day, Games: make(map[domain.GameType]ChartPoint, len(games))}
		for gt, sums := range games {
			n := float64(sums.n)
			cd.Games[gt] = ChartPoint{
				AvgScore:    int(math.Round(sums.score / n)),
				AvgAccuracy: int(math.Round(sums.accuracy / n)),
				GamesPlayed: sums.n,
			}
		}
		out = append(out, cd)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

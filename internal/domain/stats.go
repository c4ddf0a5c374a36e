package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// StreakWindow is how recent the previous play must be for a streak to continue.
const StreakWindow = 24 * time.Hour

// GameTypeStats aggregates every recorded result of one game type.
// AverageAccuracy and AverageTime are exact running means.
type GameTypeStats struct {
	TotalGamesPlayed int        `json:"totalGamesPlayed"`
	TotalScore       int        `json:"totalScore"`
	AverageAccuracy  float64    `json:"averageAccuracy"` // 0-100
	AverageTime      float64    `json:"averageTime"`     // seconds per game
	BestScore        int        `json:"bestScore"`
	CurrentStreak    int        `json:"currentStreak"`
	LastPlayed       *time.Time `json:"lastPlayed,omitempty"`
	SkillDecay       int        `json:"skillDecay"` // days since LastPlayed
}

// Played reports whether at least one game has been recorded.
func (s *GameTypeStats) Played() bool {
	return s != nil && s.TotalGamesPlayed > 0
}

// PerformanceRecord holds a player's statistics and current weak areas.
type PerformanceRecord struct {
	UserID    uuid.UUID                   `json:"userId"`
	Stats     map[GameType]*GameTypeStats `json:"stats"`
	WeakAreas []WeakArea                  `json:"weakAreas"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// NewPerformanceRecord creates a record with zeroed stats for every game type.
func NewPerformanceRecord(userID uuid.UUID, now time.Time) *PerformanceRecord {
	r := &PerformanceRecord{
		UserID:    userID,
		Stats:     make(map[GameType]*GameTypeStats, len(gameTypes)),
		WeakAreas: []WeakArea{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.ensureStats()
	return r
}

// StatsFor returns the stats for gt, creating an empty entry if needed.
func (r *PerformanceRecord) StatsFor(gt GameType) *GameTypeStats {
	r.ensureStats()
	s, ok := r.Stats[gt]
	if !ok {
		s = &GameTypeStats{}
		r.Stats[gt] = s
	}
	return s
}

// Clone returns a deep copy so reads can mutate decay without touching the source.
func (r *PerformanceRecord) Clone() *PerformanceRecord {
	out := &PerformanceRecord{
		UserID:    r.UserID,
		Stats:     make(map[GameType]*GameTypeStats, len(r.Stats)),
		WeakAreas: append([]WeakArea{}, r.WeakAreas...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for gt, s := range r.Stats {
		cp := *s
		if s.LastPlayed != nil {
			t := *s.LastPlayed
			cp.LastPlayed = &t
		}
		out.Stats[gt] = &cp
	}
	out.ensureStats()
	return out
}

func (r *PerformanceRecord) ensureStats() {
	if r.Stats == nil {
		r.Stats = make(map[GameType]*GameTypeStats, len(gameTypes))
	}
	for _, gt := range gameTypes {
		if r.Stats[gt] == nil {
			r.Stats[gt] = &GameTypeStats{}
		}
	}
}

// StatsAggregator folds game results into running statistics.
type StatsAggregator struct{}

// NewStatsAggregator creates a new stats aggregator
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// Apply folds one game into s and returns it. accuracy is in [0,1].
// The streak continues when the previous play is no older than
// StreakWindow at now; otherwise it restarts at 1.
func (a *StatsAggregator) Apply(s *GameTypeStats, score int, accuracy, timeTaken float64, now time.Time) *GameTypeStats {
	if s == nil {
		s = &GameTypeStats{}
	}

	prev := float64(s.TotalGamesPlayed)
	s.TotalGamesPlayed++
	n := float64(s.TotalGamesPlayed)

	s.TotalScore += score
	s.AverageAccuracy = (s.AverageAccuracy*prev + accuracy*100) / n
	s.AverageTime = (s.AverageTime*prev + timeTaken) / n
	s.BestScore = max(s.BestScore, score)

	if s.LastPlayed != nil && !s.LastPlayed.Before(now.Add(-StreakWindow)) {
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 1
	}

	played := now
	s.LastPlayed = &played
	s.SkillDecay = 0

	return s
}

// daysSince returns whole days elapsed between t and now.
func daysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

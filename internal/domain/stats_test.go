package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStatsAggregator_RunningMean(t *testing.T) {
	agg := NewStatsAggregator()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := &GameTypeStats{}
	for i, acc := range []float64{0.5, 1.0, 0.5} {
		s = agg.Apply(s, 10*(i+1), acc, float64(30+i*10), now.Add(time.Duration(i)*time.Hour))
	}

	if s.TotalGamesPlayed != 3 {
		t.Errorf("TotalGamesPlayed = %d; want 3", s.TotalGamesPlayed)
	}
	if math.Abs(s.AverageAccuracy-66.67) > 0.01 {
		t.Errorf("AverageAccuracy = %.4f; want 66.67", s.AverageAccuracy)
	}
	if s.AverageTime != 40 {
		t.Errorf("AverageTime = %v; want 40", s.AverageTime)
	}
	if s.TotalScore != 60 {
		t.Errorf("TotalScore = %d; want 60", s.TotalScore)
	}
	if s.BestScore != 30 {
		t.Errorf("BestScore = %d; want 30", s.BestScore)
	}
}

func TestStatsAggregator_BestScoreNeverDrops(t *testing.T) {
	agg := NewStatsAggregator()
	now := time.Now()

	s := agg.Apply(&GameTypeStats{}, 90, 1, 10, now)
	s = agg.Apply(s, 20, 1, 10, now)

	if s.BestScore != 90 {
		t.Errorf("BestScore = %d; want 90", s.BestScore)
	}
}

func TestStatsAggregator_Streak(t *testing.T) {
	agg := NewStatsAggregator()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastPlayed *time.Time
		streak     int
		now        time.Time
		want       int
	}{
		{"first play starts streak", nil, 0, base, 1},
		{"play within window increments", ptr(base), 2, base.Add(23 * time.Hour), 3},
		{"play exactly at window edge increments", ptr(base), 2, base.Add(24 * time.Hour), 3},
		{"same-day replay increments", ptr(base), 4, base.Add(5 * time.Minute), 5},
		{"gap over 24h resets", ptr(base), 6, base.Add(25 * time.Hour), 1},
		{"week gap resets", ptr(base), 3, base.Add(7 * 24 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &GameTypeStats{CurrentStreak: tt.streak, LastPlayed: tt.lastPlayed, SkillDecay: 9}
			if tt.lastPlayed != nil {
				s.TotalGamesPlayed = 1
			}

			got := agg.Apply(s, 1, 1, 1, tt.now)

			if got.CurrentStreak != tt.want {
				t.Errorf("CurrentStreak = %d; want %d", got.CurrentStreak, tt.want)
			}
			if got.LastPlayed == nil || !got.LastPlayed.Equal(tt.now) {
				t.Errorf("LastPlayed = %v; want %v", got.LastPlayed, tt.now)
			}
			if got.SkillDecay != 0 {
				t.Errorf("SkillDecay = %d; want 0", got.SkillDecay)
			}
		})
	}
}

func TestNewPerformanceRecord(t *testing.T) {
	id := uuid.New()
	r := NewPerformanceRecord(id, time.Now())

	if r.UserID != id {
		t.Errorf("UserID = %v; want %v", r.UserID, id)
	}
	if len(r.Stats) != len(AllGameTypes()) {
		t.Fatalf("len(Stats) = %d; want %d", len(r.Stats), len(AllGameTypes()))
	}
	for _, gt := range AllGameTypes() {
		s := r.Stats[gt]
		if s == nil {
			t.Fatalf("Stats[%s] is nil", gt)
		}
		if s.TotalGamesPlayed != 0 || s.LastPlayed != nil {
			t.Errorf("Stats[%s] = %+v; want zero value", gt, *s)
		}
	}
	if r.WeakAreas == nil {
		t.Error("WeakAreas should be empty, not nil")
	}
}

func TestPerformanceRecord_CloneIsIndependent(t *testing.T) {
	now := time.Now()
	r := NewPerformanceRecord(uuid.New(), now)
	NewStatsAggregator().Apply(r.StatsFor(GameColorHunt), 5, 1, 3, now)

	cp := r.Clone()
	cp.Stats[GameColorHunt].SkillDecay = 12
	*cp.Stats[GameColorHunt].LastPlayed = now.Add(-time.Hour)

	if r.Stats[GameColorHunt].SkillDecay != 0 {
		t.Errorf("original SkillDecay = %d; want 0", r.Stats[GameColorHunt].SkillDecay)
	}
	if !r.Stats[GameColorHunt].LastPlayed.Equal(now) {
		t.Error("original LastPlayed was mutated through the clone")
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}

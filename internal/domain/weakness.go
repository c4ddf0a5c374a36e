package domain

import (
	"fmt"
	"math"
	"time"
)

// Weak-area thresholds.
const (
	DecayThresholdDays  = 7
	LowAccuracyPercent  = 60.0
	MinGamesForAccuracy = 3
	maxDecayPriority    = 5
)

// WeakArea flags a game type that needs practice.
type WeakArea struct {
	GameType GameType `json:"gameType"`
	Reason   string   `json:"reason"`
	Priority int      `json:"priority"`
}

// WeaknessAnalyzer derives skill decay and weak areas from statistics.
type WeaknessAnalyzer struct{}

// NewWeaknessAnalyzer creates a new weakness analyzer
func NewWeaknessAnalyzer() *WeaknessAnalyzer {
	return &WeaknessAnalyzer{}
}

// RefreshDecay recomputes SkillDecay in place for every played game type.
func (a *WeaknessAnalyzer) RefreshDecay(stats map[GameType]*GameTypeStats, now time.Time) {
	for _, gt := range gameTypes {
		s := stats[gt]
		if s == nil || s.LastPlayed == nil {
			continue
		}
		s.SkillDecay = daysSince(*s.LastPlayed, now)
	}
}

// RecomputeWeakAreas refreshes decay and returns the weak areas in game type
// order. A game type can contribute both a decay and an accuracy entry.
func (a *WeaknessAnalyzer) RecomputeWeakAreas(stats map[GameType]*GameTypeStats, now time.Time) []WeakArea {
	weak := []WeakArea{}

	for _, gt := range gameTypes {
		s := stats[gt]
		if s == nil {
			continue
		}

		if s.LastPlayed != nil {
			days := daysSince(*s.LastPlayed, now)
			s.SkillDecay = days
			if days >= DecayThresholdDays {
				weak = append(weak, WeakArea{
					GameType: gt,
					Reason:   fmt.Sprintf("Not practiced for %d days", days),
					Priority: min(maxDecayPriority, days/DecayThresholdDays),
				})
			}
		}

		if s.TotalGamesPlayed >= MinGamesForAccuracy && s.AverageAccuracy < LowAccuracyPercent {
			weak = append(weak, WeakArea{
				GameType: gt,
				Reason:   fmt.Sprintf("Low accuracy (%d%%)", roundInt(s.AverageAccuracy)),
				Priority: int(math.Ceil((LowAccuracyPercent - s.AverageAccuracy) / 10)),
			})
		}
	}

	return weak
}

// roundInt rounds half up, matching how percentages are shown to players.
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

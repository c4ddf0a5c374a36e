package domain

import (
	"fmt"
	"sort"
)

// MaxRecommendations caps the ranked list.
const MaxRecommendations = 5

// Challenge threshold and streak threshold for recommendations.
const (
	ChallengeAccuracyPercent = 85.0
	StreakThreshold          = 3
)

// RecommendationType classifies why a game type is suggested.
type RecommendationType string

const (
	RecommendNew       RecommendationType = "new"
	RecommendDecay     RecommendationType = "decay"
	RecommendAccuracy  RecommendationType = "accuracy"
	RecommendChallenge RecommendationType = "challenge"
	RecommendStreak    RecommendationType = "streak"
)

// Recommendation is computed on read and never persisted.
type Recommendation struct {
	GameType GameType           `json:"gameType"`
	GameName string             `json:"gameName"`
	Type     RecommendationType `json:"type"`
	Message  string             `json:"message"`
	Priority int                `json:"priority"`
}

// RecommendationRanker turns stats and skill levels into suggestions.
type RecommendationRanker struct{}

// NewRecommendationRanker creates a new recommendation ranker
func NewRecommendationRanker() *RecommendationRanker {
	return &RecommendationRanker{}
}

// Recommend collects suggestions for every game type, sorts them by priority
// descending (ties keep evaluation order) and keeps the first five.
// stats may be nil for a player who never played.
func (r *RecommendationRanker) Recommend(stats map[GameType]*GameTypeStats, levels SkillLevels) []Recommendation {
	recs := []Recommendation{}

	for _, gt := range gameTypes {
		name := gt.DisplayName()
		s := stats[gt]

		if !s.Played() {
			recs = append(recs, Recommendation{
				GameType: gt,
				GameName: name,
				Type:     RecommendNew,
				Message:  fmt.Sprintf("Try %s to discover your potential!", name),
				Priority: 2,
			})
			continue
		}

		if s.SkillDecay >= DecayThresholdDays {
			recs = append(recs, Recommendation{
				GameType: gt,
				GameName: name,
				Type:     RecommendDecay,
				Message:  fmt.Sprintf("You haven't played %s in %d days. Practice to maintain your skills!", name, s.SkillDecay),
				Priority: min(5, s.SkillDecay/DecayThresholdDays+2),
			})
		}

		if s.AverageAccuracy < LowAccuracyPercent && s.TotalGamesPlayed >= MinGamesForAccuracy {
			recs = append(recs, Recommendation{
				GameType: gt,
				GameName: name,
				Type:     RecommendAccuracy,
				Message:  fmt.Sprintf("Your accuracy in %s is %d%%. Focus on precision!", name, roundInt(s.AverageAccuracy)),
				Priority: 4,
			})
		}

		if s.AverageAccuracy >= ChallengeAccuracyPercent && levels.Level(gt) < MaxSkillLevel {
			recs = append(recs, Recommendation{
				GameType: gt,
				GameName: name,
				Type:     RecommendChallenge,
				Message:  fmt.Sprintf("You're doing great in %s! Ready for a higher challenge?", name),
				Priority: 1,
			})
		}

		if s.CurrentStreak >= StreakThreshold {
			recs = append(recs, Recommendation{
				GameType: gt,
				GameName: name,
				Type:     RecommendStreak,
				Message:  fmt.Sprintf("Amazing %d-day streak in %s! Keep it going!", s.CurrentStreak, name),
				Priority: 0,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

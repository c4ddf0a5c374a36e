package domain

import "math"

// Performance thresholds for difficulty adjustment.
const (
	highAccuracy   = 0.85
	highMaxAvgTime = 5.0
	goodAccuracy   = 0.70
	goodMaxAvgTime = 8.0
	poorAccuracy   = 0.50
	poorMinAvgTime = 15.0
	highStep       = 1.0
	goodStep       = 0.5
	poorStep       = 1.0
)

// DifficultyAdjuster maps a finished game's accuracy and pace to the
// player's next difficulty for that game type.
type DifficultyAdjuster struct{}

// NewDifficultyAdjuster creates a new difficulty adjuster
func NewDifficultyAdjuster() *DifficultyAdjuster {
	return &DifficultyAdjuster{}
}

// Adjust returns the next difficulty, rounded to one decimal place.
// Rules are checked in order and the first match wins.
func (a *DifficultyAdjuster) Adjust(current, accuracy, avgTime float64) float64 {
	next := clampLevel(current)

	switch {
	case accuracy >= highAccuracy && avgTime < highMaxAvgTime:
		next = math.Min(MaxSkillLevel, next+highStep)
	case accuracy >= goodAccuracy && avgTime < goodMaxAvgTime:
		next = math.Min(MaxSkillLevel, next+goodStep)
	case accuracy < poorAccuracy || avgTime > poorMinAvgTime:
		next = math.Max(MinSkillLevel, next-poorStep)
	}

	return roundTenth(next)
}

// Performance derives accuracy in [0,1] and the average seconds spent per
// question. A game with no questions yields zero for both, which Adjust
// treats as poor performance.
func Performance(correctAnswers, totalQuestions int, timeTaken float64) (accuracy, avgTime float64) {
	if totalQuestions <= 0 {
		return 0, 0
	}
	total := float64(totalQuestions)
	return float64(correctAnswers) / total, timeTaken / total
}

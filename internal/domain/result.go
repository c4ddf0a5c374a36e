package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Outcome is what a client reports when a game finishes.
type Outcome struct {
	Score          int     `json:"score"`
	CorrectAnswers int     `json:"correctAnswers"`
	TotalQuestions int     `json:"totalQuestions"`
	TimeTaken      float64 `json:"timeTaken"` // seconds
}

// MaxOutcomeCount bounds score and answer counts to what the SQL
// INTEGER columns hold.
const MaxOutcomeCount = math.MaxInt32

// Validate rejects outcomes that cannot be folded into statistics.
func (o Outcome) Validate() error {
	switch {
	case o.Score > MaxOutcomeCount, o.CorrectAnswers > MaxOutcomeCount, o.TotalQuestions > MaxOutcomeCount:
		return fmt.Errorf("%w: counts must not exceed %d", ErrInvalidOutcome, MaxOutcomeCount)
	case math.IsNaN(o.TimeTaken) || math.IsInf(o.TimeTaken, 0):
		return fmt.Errorf("%w: timeTaken must be finite", ErrInvalidOutcome)
	case o.TotalQuestions < 0:
		return fmt.Errorf("%w: totalQuestions must not be negative", ErrInvalidOutcome)
	case o.CorrectAnswers < 0:
		return fmt.Errorf("%w: correctAnswers must not be negative", ErrInvalidOutcome)
	case o.CorrectAnswers > o.TotalQuestions:
		return fmt.Errorf("%w: correctAnswers exceeds totalQuestions", ErrInvalidOutcome)
	case o.Score < 0:
		return fmt.Errorf("%w: score must not be negative", ErrInvalidOutcome)
	case o.TimeTaken < 0:
		return fmt.Errorf("%w: timeTaken must not be negative", ErrInvalidOutcome)
	}
	return nil
}

// Accuracy returns correct/total in [0,1], or 0 when there were no questions.
func (o Outcome) Accuracy() float64 {
	acc, _ := Performance(o.CorrectAnswers, o.TotalQuestions, o.TimeTaken)
	return acc
}

// GameResult is one completed game. Results are append-only.
type GameResult struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"userId"`
	GameType         GameType  `json:"gameType"`
	Score            int       `json:"score"`
	DifficultyAtPlay float64   `json:"difficulty"`
	CorrectAnswers   int       `json:"correctAnswers"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeTaken        float64   `json:"timeTaken"`
	PlayedAt         time.Time `json:"playedAt"`
}

// NewGameResult builds the log entry for an outcome played at difficulty.
func NewGameResult(userID uuid.UUID, gt GameType, o Outcome, difficulty float64, playedAt time.Time) *GameResult {
	return &GameResult{
		ID:               uuid.New(),
		UserID:           userID,
		GameType:         gt,
		Score:            o.Score,
		DifficultyAtPlay: difficulty,
		CorrectAnswers:   o.CorrectAnswers,
		TotalQuestions:   o.TotalQuestions,
		TimeTaken:        o.TimeTaken,
		PlayedAt:         playedAt,
	}
}

// AccuracyPercent returns the result's accuracy on a 0-100 scale.
func (r *GameResult) AccuracyPercent() float64 {
	acc, _ := Performance(r.CorrectAnswers, r.TotalQuestions, r.TimeTaken)
	return acc * 100
}

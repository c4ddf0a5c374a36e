// Package gameconfig derives per-game generation parameters from a
// player's difficulty. The table is game-design data: the engine only
// supplies the difficulty.
package gameconfig

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// Config is the payload a game client needs to generate a round.
// Fields that do not apply to a game type are omitted.
type Config struct {
	GameType   domain.GameType `json:"gameType"`
	Difficulty float64         `json:"difficulty"`

	// Continuous parameters follow the difficulty in half steps.
	TimeLimit        float64 `json:"timeLimit,omitempty"`       // seconds
	TimePerQuestion  float64 `json:"timePerQuestion,omitempty"` // seconds
	DisplayTime      float64 `json:"displayTime,omitempty"`     // milliseconds
	PuzzleComplexity float64 `json:"puzzleComplexity,omitempty"`
	MaxNumber        float64 `json:"maxNumber,omitempty"`

	// Counts are whole numbers.
	QuestionsCount int `json:"questionsCount,omitempty"`
	RoundsCount    int `json:"roundsCount,omitempty"`
	Rounds         int `json:"rounds,omitempty"`
	PuzzlesCount   int `json:"puzzlesCount,omitempty"`
	GridSize       int `json:"gridSize,omitempty"`
	SequenceLength int `json:"sequenceLength,omitempty"`
	PatternLength  int `json:"patternLength,omitempty"`
	WordLength     int `json:"wordLength,omitempty"`

	Operations   []string `json:"operations,omitempty"`
	PatternTypes []string `json:"patternTypes,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

// Derive returns the generation parameters for gt at difficulty d.
func Derive(gt domain.GameType, d float64) (Config, error) {
	if !gt.Valid() {
		return Config{}, fmt.Errorf("%w: %q", domain.ErrInvalidGameType, gt)
	}

	cfg := Config{GameType: gt, Difficulty: d}

	switch gt {
	case domain.GameMathReflex:
		cfg.TimeLimit = atLeast(10, 30-d*2)
		cfg.QuestionsCount = 5 + half(d)
		cfg.Operations = tiered(d, 3, 6, []string{"+", "-"}, []string{"+", "-", "*"}, []string{"+", "-", "*", "/"})
		cfg.MaxNumber = 10 + d*10

	case domain.GameMemoryBoost:
		cfg.GridSize = atMost(6, 3+third(d))
		cfg.SequenceLength = 3 + half(d)
		cfg.DisplayTime = atLeast(500, 2000-d*150)
		cfg.Rounds = 5

	case domain.GameLogicPuzzles:
		cfg.PuzzleComplexity = d
		cfg.TimeLimit = atLeast(30, 120-d*8)
		cfg.PuzzlesCount = 3 + third(d)

	case domain.GameWordBuilder:
		cfg.WordLength = atMost(8, 3+half(d))
		cfg.TimeLimit = atLeast(20, 60-d*4)
		cfg.RoundsCount = 5 + third(d)

	case domain.GamePatternMatch:
		cfg.PatternLength = 3 + half(d)
		cfg.DisplayTime = atLeast(500, 2000-d*150)
		cfg.RoundsCount = 5 + third(d)
		cfg.PatternTypes = tiered(d, 4, 7, []string{"shapes"}, []string{"shapes", "colors"}, []string{"shapes", "colors", "numbers"})

	case domain.GameQuickQuiz:
		cfg.TimePerQuestion = atLeast(10, 30-d*2)
		cfg.QuestionsCount = 5 + half(d)
		cfg.Categories = tiered(d, 4, 7, []string{"general"}, []string{"general", "science"}, []string{"general", "science", "math", "history"})

	case domain.GameColorHunt:
		cfg.RoundsCount = 5 + half(d)
		cfg.GridSize = atMost(6, 4+third(d))
		cfg.TimeLimit = atLeast(5, 15-d)

	case domain.GameShapeEscape:
		cfg.RoundsCount = 5 + half(d)
		cfg.PuzzleComplexity = d
		cfg.TimeLimit = atLeast(5, 20-d)
	}

	return cfg, nil
}

func floor(v float64) int { return int(math.Floor(v)) }
func half(d float64) int  { return floor(d / 2) }
func third(d float64) int { return floor(d / 3) }

func atLeast(lo, v float64) float64 {
	return math.Max(lo, v)
}

func atMost(hi int, v int) int {
	return min(hi, v)
}

// tiered picks low below the first bound, mid below the second, high otherwise.
func tiered(d, first, second float64, low, mid, high []string) []string {
	switch {
	case d < first:
		return low
	case d < second:
		return mid
	default:
		return high
	}
}

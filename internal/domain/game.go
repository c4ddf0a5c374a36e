package domain

import "fmt"

// GameType identifies one of the arcade's mini-games.
type GameType string

const (
	GameMathReflex   GameType = "mathReflex"
	GameMemoryBoost  GameType = "memoryBoost"
	GameLogicPuzzles GameType = "logicPuzzles"
	GameWordBuilder  GameType = "wordBuilder"
	GamePatternMatch GameType = "patternMatch"
	GameQuickQuiz    GameType = "quickQuiz"
	GameColorHunt    GameType = "colorHunt"
	GameShapeEscape  GameType = "shapeEscape"
)

// gameTypes is the closed enumeration in canonical order.
// Weak areas and recommendations are emitted in this order.
var gameTypes = []GameType{
	GameMathReflex,
	GameMemoryBoost,
	GameLogicPuzzles,
	GameWordBuilder,
	GamePatternMatch,
	GameQuickQuiz,
	GameColorHunt,
	GameShapeEscape,
}

var gameNames = map[GameType]string{
	GameMathReflex:   "Math Reflex",
	GameMemoryBoost:  "Memory Boost",
	GameLogicPuzzles: "Logic Puzzles",
	GameWordBuilder:  "Word Builder",
	GamePatternMatch: "Pattern Match",
	GameQuickQuiz:    "Quick Quiz",
	GameColorHunt:    "Color Hunt",
	GameShapeEscape:  "Shape Escape",
}

// AllGameTypes returns every game type in canonical order.
func AllGameTypes() []GameType {
	out := make([]GameType, len(gameTypes))
	copy(out, gameTypes)
	return out
}

// ParseGameType validates s against the enumeration.
func ParseGameType(s string) (GameType, error) {
	gt := GameType(s)
	if !gt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGameType, s)
	}
	return gt, nil
}

// Valid reports whether g is a known game type.
func (g GameType) Valid() bool {
	_, ok := gameNames[g]
	return ok
}

// DisplayName returns the human-readable name used in messages.
func (g GameType) DisplayName() string {
	if name, ok := gameNames[g]; ok {
		return name
	}
	return string(g)
}

func (g GameType) String() string {
	return string(g)
}

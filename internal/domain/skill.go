package domain

import "math"

// Skill level bounds. Levels move in 0.1 steps.
const (
	MinSkillLevel     = 1.0
	MaxSkillLevel     = 10.0
	DefaultSkillLevel = MinSkillLevel
)

// SkillLevels holds one difficulty per game type for a player.
type SkillLevels map[GameType]float64

// NewSkillLevels returns default levels for every game type.
func NewSkillLevels() SkillLevels {
	levels := make(SkillLevels, len(gameTypes))
	for _, gt := range gameTypes {
		levels[gt] = DefaultSkillLevel
	}
	return levels
}

// Level returns the level for gt, or the default when unset.
func (s SkillLevels) Level(gt GameType) float64 {
	if lvl, ok := s[gt]; ok && lvl >= MinSkillLevel {
		return lvl
	}
	return DefaultSkillLevel
}

// Set stores lvl for gt, clamped to the valid range.
func (s SkillLevels) Set(gt GameType, lvl float64) {
	s[gt] = clampLevel(lvl)
}

// Clone returns an independent copy with every game type filled in.
func (s SkillLevels) Clone() SkillLevels {
	out := NewSkillLevels()
	for gt, lvl := range s {
		if gt.Valid() {
			out[gt] = lvl
		}
	}
	return out
}

func clampLevel(lvl float64) float64 {
	return math.Max(MinSkillLevel, math.Min(MaxSkillLevel, lvl))
}

// roundTenth rounds half away from zero at one decimal place.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

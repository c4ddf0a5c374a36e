package domain

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWeaknessAnalyzer_DecayOnly(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	r := NewPerformanceRecord(uuid.New(), now)
	s := r.StatsFor(GameMemoryBoost)
	s.TotalGamesPlayed = 4
	s.AverageAccuracy = 80
	s.LastPlayed = ptr(now.Add(-10 * 24 * time.Hour))

	weak := NewWeaknessAnalyzer().RecomputeWeakAreas(r.Stats, now)

	want := []WeakArea{{GameType: GameMemoryBoost, Reason: "Not practiced for 10 days", Priority: 1}}
	if !reflect.DeepEqual(weak, want) {
		t.Errorf("RecomputeWeakAreas() = %+v; want %+v", weak, want)
	}
	if s.SkillDecay != 10 {
		t.Errorf("SkillDecay = %d; want 10", s.SkillDecay)
	}
}

func TestWeaknessAnalyzer_Priorities(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysAgo  int
		games    int
		accuracy float64
		want     []WeakArea
	}{
		{
			name: "recent and accurate", daysAgo: 2, games: 5, accuracy: 90,
			want: []WeakArea{},
		},
		{
			name: "six days is not decay", daysAgo: 6, games: 1, accuracy: 90,
			want: []WeakArea{},
		},
		{
			name: "seven days", daysAgo: 7, games: 1, accuracy: 90,
			want: []WeakArea{{GameQuickQuiz, "Not practiced for 7 days", 1}},
		},
		{
			name: "decay priority capped", daysAgo: 60, games: 1, accuracy: 90,
			want: []WeakArea{{GameQuickQuiz, "Not practiced for 60 days", 5}},
		},
		{
			name: "low accuracy needs three games", daysAgo: 0, games: 2, accuracy: 10,
			want: []WeakArea{},
		},
		{
			name: "low accuracy", daysAgo: 0, games: 3, accuracy: 44.6,
			want: []WeakArea{{GameQuickQuiz, "Low accuracy (45%)", 2}},
		},
		{
			name: "just under threshold", daysAgo: 1, games: 3, accuracy: 59.9,
			want: []WeakArea{{GameQuickQuiz, "Low accuracy (60%)", 1}},
		},
		{
			name: "accuracy priority is not capped", daysAgo: 1, games: 3, accuracy: 5,
			want: []WeakArea{{GameQuickQuiz, "Low accuracy (5%)", 6}},
		},
		{
			name: "zero accuracy", daysAgo: 0, games: 3, accuracy: 0,
			want: []WeakArea{{GameQuickQuiz, "Low accuracy (0%)", 6}},
		},
		{
			name: "both entries for one game", daysAgo: 15, games: 3, accuracy: 30,
			want: []WeakArea{
				{GameQuickQuiz, "Not practiced for 15 days", 2},
				{GameQuickQuiz, "Low accuracy (30%)", 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPerformanceRecord(uuid.New(), now)
			s := r.StatsFor(GameQuickQuiz)
			s.TotalGamesPlayed = tt.games
			s.AverageAccuracy = tt.accuracy
			s.LastPlayed = ptr(now.Add(-time.Duration(tt.daysAgo) * 24 * time.Hour))

			got := NewWeaknessAnalyzer().RecomputeWeakAreas(r.Stats, now)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RecomputeWeakAreas() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestWeaknessAnalyzer_InsertionOrder(t *testing.T) {
	now := time.Now()
	r := NewPerformanceRecord(uuid.New(), now)
	for _, gt := range []GameType{GameShapeEscape, GameMathReflex, GameWordBuilder} {
		s := r.StatsFor(gt)
		s.TotalGamesPlayed = 3
		s.AverageAccuracy = 20
		s.LastPlayed = ptr(now)
	}

	got := NewWeaknessAnalyzer().RecomputeWeakAreas(r.Stats, now)

	order := []GameType{GameMathReflex, GameWordBuilder, GameShapeEscape}
	if len(got) != len(order) {
		t.Fatalf("len = %d; want %d", len(got), len(order))
	}
	for i, gt := range order {
		if got[i].GameType != gt {
			t.Errorf("got[%d].GameType = %s; want %s", i, got[i].GameType, gt)
		}
	}
}

func TestWeaknessAnalyzer_Idempotent(t *testing.T) {
	now := time.Now()
	r := NewPerformanceRecord(uuid.New(), now)
	s := r.StatsFor(GameLogicPuzzles)
	s.TotalGamesPlayed = 5
	s.AverageAccuracy = 40
	s.LastPlayed = ptr(now.Add(-20 * 24 * time.Hour))

	a := NewWeaknessAnalyzer()
	first := a.RecomputeWeakAreas(r.Stats, now)
	second := a.RecomputeWeakAreas(r.Stats, now)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run = %+v; want %+v", second, first)
	}
}

func TestWeaknessAnalyzer_NeverPlayedHasNoDecay(t *testing.T) {
	r := NewPerformanceRecord(uuid.New(), time.Now())

	got := NewWeaknessAnalyzer().RecomputeWeakAreas(r.Stats, time.Now())
	if len(got) != 0 {
		t.Errorf("RecomputeWeakAreas() = %+v; want empty", got)
	}
	for gt, s := range r.Stats {
		if s.SkillDecay != 0 {
			t.Errorf("Stats[%s].SkillDecay = %d; want 0", gt, s.SkillDecay)
		}
	}
}

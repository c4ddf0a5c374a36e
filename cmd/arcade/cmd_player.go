package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
)

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List the mini-games",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			games, err := c.Games(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range games {
				fmt.Fprintf(out, "  %-14s %s\n", g.ID, g.Name)
			}
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a new player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			id := uuid.Nil
			if raw, _ := cmd.Flags().GetString("id"); raw != "" {
				if id, err = uuid.Parse(raw); err != nil {
					return fmt.Errorf("invalid --id: %w", err)
				}
			}

			p, err := c.RegisterPlayer(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Registered %s\n", p.Username)
			fmt.Fprintf(out, "Player ID: %s\n", p.ID)
			fmt.Fprintf(out, "\nexport ARCADE_PLAYER=%s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().String("id", "", "Register under this UUID instead of a generated one")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <game>",
		Short: "Show game parameters at the player's current difficulty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			gt, err := parseGameArg(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			cfg, err := c.GetConfig(cmd.Context(), player, gt)
			if err != nil {
				return err
			}
			printGameConfig(cmd, cfg)
			return nil
		},
	}
}

func printGameConfig(cmd *cobra.Command, cfg *gameconfig.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s at level %.1f %s\n", cfg.GameType.DisplayName(), cfg.Difficulty,
		renderProgressBar(cfg.Difficulty/domain.MaxSkillLevel, 20))

	rows := []struct {
		label string
		value float64
	}{
		{"Time limit (s)", cfg.TimeLimit},
		{"Time per question (s)", cfg.TimePerQuestion},
		{"Display time (ms)", cfg.DisplayTime},
		{"Questions", float64(cfg.QuestionsCount)},
		{"Rounds", float64(cfg.RoundsCount)},
		{"Pattern rounds", float64(cfg.Rounds)},
		{"Puzzles", float64(cfg.PuzzlesCount)},
		{"Puzzle complexity", cfg.PuzzleComplexity},
		{"Grid size", float64(cfg.GridSize)},
		{"Sequence length", float64(cfg.SequenceLength)},
		{"Pattern length", float64(cfg.PatternLength)},
		{"Word length", float64(cfg.WordLength)},
		{"Max number", cfg.MaxNumber},
	}
	for _, r := range rows {
		if r.value != 0 {
			fmt.Fprintf(out, "  %-22s %s\n", r.label, strconv.FormatFloat(r.value, 'f', -1, 64))
		}
	}
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <game>",
		Short: "Record a finished game",
		Long:  "Record a finished game's outcome. The game's difficulty is adjusted from accuracy and time per question.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			gt, err := parseGameArg(args[0])
			if err != nil {
				return err
			}

			var o domain.Outcome
			o.Score, _ = cmd.Flags().GetInt("score")
			o.CorrectAnswers, _ = cmd.Flags().GetInt("correct")
			o.TotalQuestions, _ = cmd.Flags().GetInt("questions")
			o.TimeTaken, _ = cmd.Flags().GetFloat64("time")
			if err := o.Validate(); err != nil {
				return err
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			res, err := c.RecordGameResult(cmd.Context(), player, gt, o)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Recorded %s: score %d, accuracy %d%%\n", gt.DisplayName(), o.Score, res.AccuracyPercent)
			switch {
			case res.NewDifficulty > res.PreviousDifficulty:
				fmt.Fprintf(out, "Level up: %.1f → %.1f\n", res.PreviousDifficulty, res.NewDifficulty)
			case res.NewDifficulty < res.PreviousDifficulty:
				fmt.Fprintf(out, "Level eased: %.1f → %.1f\n", res.PreviousDifficulty, res.NewDifficulty)
			default:
				fmt.Fprintf(out, "Level stays at %.1f\n", res.NewDifficulty)
			}
			if st := res.Stats; st != nil {
				fmt.Fprintf(out, "Games: %d  Best: %d  Streak: %d\n", st.TotalGamesPlayed, st.BestScore, st.CurrentStreak)
			}
			if len(res.WeakAreas) > 0 {
				fmt.Fprintln(out, "\nWeak areas:")
				for _, w := range res.WeakAreas {
					fmt.Fprintf(out, "  • %s: %s\n", w.GameType.DisplayName(), w.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("score", 0, "Final score")
	cmd.Flags().Int("correct", 0, "Correct answers")
	cmd.Flags().Int("questions", 0, "Questions asked")
	cmd.Flags().Float64("time", 0, "Seconds taken")
	_ = cmd.MarkFlagRequired("questions")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <game>",
		Short: "List recent results for a game, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			gt, err := parseGameArg(args[0])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			results, err := c.GetHistory(cmd.Context(), player, gt, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No %s games recorded yet.\n", gt.DisplayName())
				return nil
			}

			fmt.Fprintf(out, "%-19s  %6s  %8s  %6s  %s\n", "Played", "Score", "Accuracy", "Level", "Time")
			fmt.Fprintln(out, strings.Repeat("─", 56))
			for _, r := range results {
				fmt.Fprintf(out, "%-19s  %6d  %7.0f%%  %6.1f  %.1fs\n",
					r.PlayedAt.Local().Format("2006-01-02 15:04:05"),
					r.Score, r.AccuracyPercent(), r.DifficultyAtPlay, r.TimeTaken)
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of results to show")
	return cmd
}

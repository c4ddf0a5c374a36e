package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show per-game statistics and weak areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			dash, err := c.GetDashboard(cmd.Context(), player)
			if err != nil {
				return err
			}
			printDashboard(cmd.OutOrStdout(), dash)
			return nil
		},
	}
}

func printDashboard(out io.Writer, dash *performance.Dashboard) {
	name := dash.Player.Username
	if name == "" {
		name = dash.Player.ID.String()
	}
	fmt.Fprintf(out, "Dashboard for %s\n", name)
	fmt.Fprintln(out, strings.Repeat("═", 60))

	fmt.Fprintf(out, "%-14s %5s %6s %8s %6s %6s  %s\n", "Game", "Games", "Best", "Accuracy", "Streak", "Level", "")
	for _, gt := range domain.AllGameTypes() {
		level := dash.Player.SkillLevels.Level(gt)
		st := dash.Stats[gt]
		if st == nil || !st.Played() {
			fmt.Fprintf(out, "%-14s %5s %6s %8s %6s %6.1f  %s\n", gt.DisplayName(), "-", "-", "-", "-", level,
				renderProgressBar(level/domain.MaxSkillLevel, 10))
			continue
		}
		fmt.Fprintf(out, "%-14s %5d %6d %7.0f%% %6d %6.1f  %s\n", gt.DisplayName(),
			st.TotalGamesPlayed, st.BestScore, st.AverageAccuracy, st.CurrentStreak, level,
			renderProgressBar(level/domain.MaxSkillLevel, 10))
	}

	if len(dash.WeakAreas) > 0 {
		fmt.Fprintln(out, "\nWeak areas:")
		for _, w := range dash.WeakAreas {
			fmt.Fprintf(out, "  [%d] %s: %s\n", w.Priority, w.GameType.DisplayName(), w.Reason)
		}
	}

	if len(dash.RecentGames) > 0 {
		fmt.Fprintln(out, "\nRecent games:")
		for _, r := range dash.RecentGames {
			fmt.Fprintf(out, "  %s  %-14s score %d (%.0f%%)\n",
				r.PlayedAt.Local().Format("01-02 15:04"), r.GameType.DisplayName(), r.Score, r.AccuracyPercent())
		}
	}
}

func newRecommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Suggest what to play next",
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			recs, err := c.GetRecommendations(cmd.Context(), player)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "Nothing to suggest. Keep playing!")
				return nil
			}
			for i, r := range recs {
				fmt.Fprintf(out, "%d. %-14s %s\n", i+1, r.GameType.DisplayName(), r.Message)
			}
			return nil
		},
	}
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show daily averages per game",
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := resolvePlayer(cmd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			chart, err := c.GetChartData(cmd.Context(), player, days)
			if err != nil {
				return err
			}
			printChart(cmd.OutOrStdout(), chart)
			return nil
		},
	}
	cmd.Flags().IntP("days", "d", 7, "Days to look back")
	return cmd
}

func printChart(out io.Writer, chart []performance.ChartDay) {
	if len(chart) == 0 {
		fmt.Fprintln(out, "No games in this period.")
		return
	}

	for _, day := range chart {
		fmt.Fprintln(out, day.Date)

		games := make([]domain.GameType, 0, len(day.Games))
		for gt := range day.Games {
			games = append(games, gt)
		}
		sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })

		for _, gt := range games {
			p := day.Games[gt]
			fmt.Fprintf(out, "  %-14s %s %3d%%  avg %d  (%d games)\n", gt.DisplayName(),
				renderProgressBar(float64(p.AvgAccuracy)/100, 20), p.AvgAccuracy, p.AvgScore, p.GamesPlayed)
		}
	}
}

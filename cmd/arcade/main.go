package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/brainarcade/internal/client"
	"github.com/felixgeelhaar/brainarcade/internal/config"
	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "arcaded.pid"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "arcade",
		Short:         "Brain Arcade adaptive difficulty engine",
		Long:          "Brain Arcade tracks mini-game results per player and adapts each game's difficulty.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("addr", "", "Daemon address (overrides ARCADE_ADDR and config.yaml)")
	root.PersistentFlags().StringP("player", "p", "", "Player UUID (overrides ARCADE_PLAYER)")

	root.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newLogsCmd(),
		newGamesCmd(),
		newRegisterCmd(),
		newConfigCmd(),
		newPlayCmd(),
		newHistoryCmd(),
		newDashboardCmd(),
		newRecommendCmd(),
		newChartCmd(),
		newEventsCmd(),
		newMCPCmd(),
	)
	return root
}

// resolveAddr returns the daemon URL using --addr (highest priority), then
// ARCADE_ADDR, then bind and port from config.yaml.
func resolveAddr(cmd *cobra.Command) string {
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		return a
	}
	if a := os.Getenv("ARCADE_ADDR"); a != "" {
		return a
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return client.DefaultBaseURL
	}
	config.ApplyEnv(cfg)
	return fmt.Sprintf("http://%s:%d", cfg.Daemon.Bind, cfg.Daemon.Port)
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	return client.New(client.Options{
		BaseURL:    resolveAddr(cmd),
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	})
}

func resolvePlayer(cmd *cobra.Command) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("player")
	if raw == "" {
		raw = os.Getenv("ARCADE_PLAYER")
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("no player given (use --player or ARCADE_PLAYER)")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid player id %q: %w", raw, err)
	}
	return id, nil
}

func parseGameArg(raw string) (domain.GameType, error) {
	gt, err := domain.ParseGameType(raw)
	if err != nil {
		names := make([]string, 0, len(domain.AllGameTypes()))
		for _, g := range domain.AllGameTypes() {
			names = append(names, string(g))
		}
		return "", fmt.Errorf("%w (valid: %s)", err, strings.Join(names, ", "))
	}
	return gt, nil
}

func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

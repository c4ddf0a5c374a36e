package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

// Server exposes the adaptive difficulty engine as MCP tools
type Server struct {
	mcpServer *server.Server
	engine    performance.Engine
}

// Config contains configuration for the MCP server
type Config struct {
	Engine  performance.Engine
	Version string
}

// NewServer creates a new MCP server for the arcade
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{engine: cfg.Engine}

	s.mcpServer = server.New(server.Info{
		Name:    "brainarcade",
		Version: version,
	}, server.WithInstructions(`
Brain Arcade tracks a player's mini-game results and adapts difficulty.
Difficulty is a level between 1 and 10 per game type. It rises after strong
games and drops after weak ones.

Typical flow:
1. arcade_register once per player (keep the returned player_id)
2. arcade_config before a game to get its parameters at the current level
3. arcade_record after the game with score, correct answers, questions and time
4. arcade_dashboard, arcade_recommend or arcade_chart to review progress

Game types: mathReflex, memoryBoost, logicPuzzles, wordBuilder,
patternMatch, quickQuiz, colorHunt, shapeEscape.
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("arcade_games").
		Description("List the available mini-games.").
		Handler(s.handleGames)

	s.mcpServer.Tool("arcade_register").
		Description("Register a player. Every game type starts at difficulty 1.").
		Handler(s.handleRegister)

	s.mcpServer.Tool("arcade_config").
		Description("Get the game parameters for a player's current difficulty.").
		Handler(s.handleConfig)

	s.mcpServer.Tool("arcade_record").
		Description("Record a finished game and adjust the player's difficulty.").
		Handler(s.handleRecord)

	s.mcpServer.Tool("arcade_dashboard").
		Description("Get per-game statistics, weak areas and recent games.").
		Handler(s.handleDashboard)

	s.mcpServer.Tool("arcade_recommend").
		Description("Get up to five ranked suggestions for what to play next.").
		Handler(s.handleRecommend)

	s.mcpServer.Tool("arcade_history").
		Description("List recent results for one game type, newest first.").
		Handler(s.handleHistory)

	s.mcpServer.Tool("arcade_chart").
		Description("Get daily average score and accuracy per game type.").
		Handler(s.handleChart)
}

// Input/Output types for tools

type GamesInput struct{}

type GameEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GamesOutput struct {
	Games []GameEntry `json:"games"`
}

type RegisterInput struct {
	Username string `json:"username" jsonschema:"description=Display name (1-64 characters)"`
	PlayerID string `json:"player_id,omitempty" jsonschema:"description=Optional UUID to register the player under"`
}

type RegisterOutput struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type GameInput struct {
	PlayerID string `json:"player_id" jsonschema:"description=Player UUID from arcade_register"`
	GameType string `json:"game_type" jsonschema:"description=Game type,enum=mathReflex,enum=memoryBoost,enum=logicPuzzles,enum=wordBuilder,enum=patternMatch,enum=quickQuiz,enum=colorHunt,enum=shapeEscape"`
}

type RecordInput struct {
	PlayerID       string  `json:"player_id" jsonschema:"description=Player UUID from arcade_register"`
	GameType       string  `json:"game_type" jsonschema:"description=Game type,enum=mathReflex,enum=memoryBoost,enum=logicPuzzles,enum=wordBuilder,enum=patternMatch,enum=quickQuiz,enum=colorHunt,enum=shapeEscape"`
	Score          int     `json:"score" jsonschema:"description=Final score"`
	CorrectAnswers int     `json:"correct_answers" jsonschema:"description=Number of correct answers"`
	TotalQuestions int     `json:"total_questions" jsonschema:"description=Number of questions asked"`
	TimeTaken      float64 `json:"time_taken" jsonschema:"description=Seconds spent on the game"`
}

type RecordOutput struct {
	PreviousDifficulty float64           `json:"previous_difficulty"`
	NewDifficulty      float64           `json:"new_difficulty"`
	DifficultyChanged  bool              `json:"difficulty_changed"`
	Accuracy           int               `json:"accuracy"`
	WeakAreas          []domain.WeakArea `json:"weak_areas,omitempty"`
	Message            string            `json:"message"`
}

type PlayerInput struct {
	PlayerID string `json:"player_id" jsonschema:"description=Player UUID from arcade_register"`
}

type RecommendOutput struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

type HistoryInput struct {
	PlayerID string `json:"player_id" jsonschema:"description=Player UUID from arcade_register"`
	GameType string `json:"game_type" jsonschema:"description=Game type"`
	Limit    int    `json:"limit,omitempty" jsonschema:"description=Maximum results (default: 10)"`
}

type HistoryOutput struct {
	GameType string               `json:"game_type"`
	Results  []*domain.GameResult `json:"results"`
}

type ChartInput struct {
	PlayerID string `json:"player_id" jsonschema:"description=Player UUID from arcade_register"`
	Days     int    `json:"days,omitempty" jsonschema:"description=Days to look back (default: 30)"`
}

type ChartOutput struct {
	Days []performance.ChartDay `json:"days"`
}

// Tool handlers

func (s *Server) handleGames(ctx context.Context, _ GamesInput) (GamesOutput, error) {
	out := GamesOutput{}
	for _, gt := range domain.AllGameTypes() {
		out.Games = append(out.Games, GameEntry{ID: string(gt), Name: gt.DisplayName()})
	}
	return out, nil
}

func (s *Server) handleRegister(ctx context.Context, input RegisterInput) (RegisterOutput, error) {
	id := uuid.Nil
	if input.PlayerID != "" {
		parsed, err := parsePlayer(input.PlayerID)
		if err != nil {
			return RegisterOutput{}, err
		}
		id = parsed
	}

	p, err := s.engine.RegisterPlayer(ctx, id, input.Username)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("failed to register player: %w", err)
	}

	return RegisterOutput{
		PlayerID: p.ID.String(),
		Username: p.Username,
		Message:  fmt.Sprintf("Registered %s. All %d games start at difficulty 1.", p.Username, len(domain.AllGameTypes())),
	}, nil
}

func (s *Server) handleConfig(ctx context.Context, input GameInput) (gameconfig.Config, error) {
	id, gt, err := parsePlayerGame(input.PlayerID, input.GameType)
	if err != nil {
		return gameconfig.Config{}, err
	}

	cfg, err := s.engine.GetConfig(ctx, id, gt)
	if err != nil {
		return gameconfig.Config{}, fmt.Errorf("failed to get config: %w", err)
	}
	return *cfg, nil
}

func (s *Server) handleRecord(ctx context.Context, input RecordInput) (RecordOutput, error) {
	id, gt, err := parsePlayerGame(input.PlayerID, input.GameType)
	if err != nil {
		return RecordOutput{}, err
	}

	res, err := s.engine.RecordGameResult(ctx, id, gt, domain.Outcome{
		Score:          input.Score,
		CorrectAnswers: input.CorrectAnswers,
		TotalQuestions: input.TotalQuestions,
		TimeTaken:      input.TimeTaken,
	})
	if err != nil {
		return RecordOutput{}, fmt.Errorf("failed to record result: %w", err)
	}

	msg := fmt.Sprintf("%s stays at level %.1f", gt.DisplayName(), res.NewDifficulty)
	switch {
	case res.NewDifficulty > res.PreviousDifficulty:
		msg = fmt.Sprintf("%s level up: %.1f -> %.1f", gt.DisplayName(), res.PreviousDifficulty, res.NewDifficulty)
	case res.NewDifficulty < res.PreviousDifficulty:
		msg = fmt.Sprintf("%s eased: %.1f -> %.1f", gt.DisplayName(), res.PreviousDifficulty, res.NewDifficulty)
	}

	return RecordOutput{
		PreviousDifficulty: res.PreviousDifficulty,
		NewDifficulty:      res.NewDifficulty,
		DifficultyChanged:  res.DifficultyChanged,
		Accuracy:           res.AccuracyPercent,
		WeakAreas:          res.WeakAreas,
		Message:            msg,
	}, nil
}

func (s *Server) handleDashboard(ctx context.Context, input PlayerInput) (performance.Dashboard, error) {
	id, err := parsePlayer(input.PlayerID)
	if err != nil {
		return performance.Dashboard{}, err
	}

	dash, err := s.engine.GetDashboard(ctx, id)
	if err != nil {
		return performance.Dashboard{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return *dash, nil
}

func (s *Server) handleRecommend(ctx context.Context, input PlayerInput) (RecommendOutput, error) {
	id, err := parsePlayer(input.PlayerID)
	if err != nil {
		return RecommendOutput{}, err
	}

	recs, err := s.engine.GetRecommendations(ctx, id)
	if err != nil {
		return RecommendOutput{}, fmt.Errorf("failed to get recommendations: %w", err)
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return RecommendOutput{Recommendations: recs}, nil
}

func (s *Server) handleHistory(ctx context.Context, input HistoryInput) (HistoryOutput, error) {
	id, gt, err := parsePlayerGame(input.PlayerID, input.GameType)
	if err != nil {
		return HistoryOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := s.engine.GetHistory(ctx, id, gt, limit)
	if err != nil {
		return HistoryOutput{}, fmt.Errorf("failed to load history: %w", err)
	}
	if results == nil {
		results = []*domain.GameResult{}
	}
	return HistoryOutput{GameType: string(gt), Results: results}, nil
}

func (s *Server) handleChart(ctx context.Context, input ChartInput) (ChartOutput, error) {
	id, err := parsePlayer(input.PlayerID)
	if err != nil {
		return ChartOutput{}, err
	}

	days, err := s.engine.GetChartData(ctx, id, input.Days)
	if err != nil {
		return ChartOutput{}, fmt.Errorf("failed to load chart: %w", err)
	}
	if days == nil {
		days = []performance.ChartDay{}
	}
	return ChartOutput{Days: days}, nil
}

func parsePlayer(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: player_id must be a UUID", domain.ErrInvalidInput)
	}
	return id, nil
}

func parsePlayerGame(rawID, rawGame string) (uuid.UUID, domain.GameType, error) {
	id, err := parsePlayer(rawID)
	if err != nil {
		return uuid.Nil, "", err
	}
	gt, err := domain.ParseGameType(rawGame)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, gt, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}

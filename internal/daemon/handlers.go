package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

const (
	maxBodyBytes = 1 << 16
	maxChartDays = 365
	maxHistory   = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "running",
		"version":    s.version,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"components": s.components,
		"rate_limit": s.cfg.RateLimit.Enabled,
	})
}

// GameInfo describes one game type in the catalog
type GameInfo struct {
	ID   domain.GameType `json:"id"`
	Name string          `json:"name"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := make([]GameInfo, 0, len(domain.AllGameTypes()))
	for _, gt := range domain.AllGameTypes() {
		games = append(games, GameInfo{ID: gt, Name: gt.DisplayName()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

// RegisterRequest is the body of POST /v1/players
type RegisterRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := uuid.Nil
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrBadRequest("id must be a UUID"))
			return
		}
		id = parsed
	}

	player, err := s.engine.RegisterPlayer(r.Context(), id, req.Username)
	if err != nil {
		writeServiceError(w, r, "register player", err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (s *Server) handleGetGameConfig(w http.ResponseWriter, r *http.Request) {
	userID, gt, ok := playerGame(w, r)
	if !ok {
		return
	}

	cfg, err := s.engine.GetConfig(r.Context(), userID, gt)
	if err != nil {
		writeServiceError(w, r, "get config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	userID, gt, ok := playerGame(w, r)
	if !ok {
		return
	}

	var outcome domain.Outcome
	if !decodeBody(w, r, &outcome) {
		return
	}

	res, err := s.engine.RecordGameResult(r.Context(), userID, gt, outcome)
	if err != nil {
		writeServiceError(w, r, "record result", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, gt, ok := playerGame(w, r)
	if !ok {
		return
	}

	limit, ok := queryInt(w, r, "limit", 0, maxHistory)
	if !ok {
		return
	}

	results, err := s.engine.GetHistory(r.Context(), userID, gt, limit)
	if err != nil {
		writeServiceError(w, r, "get history", err)
		return
	}
	if results == nil {
		results = []*domain.GameResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gameType": gt,
		"results":  results,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := playerID(w, r)
	if !ok {
		return
	}

	dash, err := s.engine.GetDashboard(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "get dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := playerID(w, r)
	if !ok {
		return
	}

	recs, err := s.engine.GetRecommendations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "get recommendations", err)
		return
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	userID, ok := playerID(w, r)
	if !ok {
		return
	}

	days, ok := queryInt(w, r, "days", 0, maxChartDays)
	if !ok {
		return
	}

	chart, err := s.engine.GetChartData(r.Context(), userID, days)
	if err != nil {
		writeServiceError(w, r, "get chart", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": chart})
}

// Request helpers. Each writes the 400 response itself and reports false.

func playerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest("userID must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func playerGame(w http.ResponseWriter, r *http.Request) (uuid.UUID, domain.GameType, bool) {
	id, ok := playerID(w, r)
	if !ok {
		return uuid.Nil, "", false
	}
	gt, err := domain.ParseGameType(r.PathValue("gameType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest(err.Error()).
			WithDetails(map[string]any{"valid": domain.AllGameTypes()}))
		return uuid.Nil, "", false
	}
	return id, gt, true
}

// queryInt parses an optional non-negative integer parameter capped at upper.
// Absent means 0, which the engine treats as its default.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def, upper int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > upper {
		writeError(w, http.StatusBadRequest,
			ErrBadRequest(name+" must be an integer between 0 and "+strconv.Itoa(upper)))
		return 0, false
	}
	return n, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, ErrBadRequest(msg))
		return false
	}
	return true
}

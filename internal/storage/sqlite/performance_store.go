package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PerformanceStore implements performance.Store backed by SQLite.
type PerformanceStore struct {
	db *DB
}

// NewPerformanceStore creates a new SQLite-backed performance store.
func NewPerformanceStore(db *DB) *PerformanceStore {
	return &PerformanceStore{db: db}
}

// CreatePlayer inserts the player and one skill level row per game type.
func (s *PerformanceStore) CreatePlayer(ctx context.Context, p *domain.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, username, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.ID.String(), p.Username, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrPlayerAlreadyExists, p.Username)
		}
		return storageErr("insert player", err)
	}

	for _, gt := range domain.AllGameTypes() {
		if err := saveSkillLevel(ctx, tx, p.ID, gt, p.SkillLevels.Level(gt), p.CreatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit player", err)
	}
	return nil
}

// GetPlayer retrieves a player with its skill levels.
func (s *PerformanceStore) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return getPlayer(ctx, s.db, id)
}

// GetPerformance retrieves a player's performance record.
func (s *PerformanceStore) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	return getPerformance(ctx, s.db, userID)
}

// RecentResults returns up to limit results, newest first. An empty gt
// matches every game type.
func (s *PerformanceStore) RecentResults(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	query := `
		SELECT id, user_id, game_type, score, difficulty, correct_answers,
			total_questions, time_taken, played_at
		FROM game_results WHERE user_id = ?`
	args := []any{userID.String()}
	if gt != "" {
		query += " AND game_type = ?"
		args = append(args, string(gt))
	}
	query += " ORDER BY played_at DESC LIMIT ?"
	args = append(args, limit)

	return s.queryResults(ctx, query, args...)
}

// ResultsSince returns results played at or after since, oldest first.
func (s *PerformanceStore) ResultsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.GameResult, error) {
	return s.queryResults(ctx, `
		SELECT id, user_id, game_type, score, difficulty, correct_answers,
			total_questions, time_taken, played_at
		FROM game_results WHERE user_id = ? AND played_at >= ?
		ORDER BY played_at ASC`,
		userID.String(), formatTime(since),
	)
}

func (s *PerformanceStore) queryResults(ctx context.Context, query string, args ...any) ([]*domain.GameResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query results", err)
	}
	defer rows.Close()

	results := []*domain.GameResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate results", err)
	}
	return results, nil
}

// Begin starts an immediate transaction; the write lock is taken up front.
func (s *PerformanceStore) Begin(ctx context.Context) (performance.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	return &performanceTx{tx: tx}, nil
}

// performanceTx implements performance.Tx over a *sql.Tx.
type performanceTx struct {
	tx *sql.Tx
}

func (t *performanceTx) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return getPlayer(ctx, t.tx, id)
}

func (t *performanceTx) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	return getPerformance(ctx, t.tx, userID)
}

func (t *performanceTx) AppendResult(ctx context.Context, r *domain.GameResult) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO game_results (id, user_id, game_type, score, difficulty,
			correct_answers, total_questions, time_taken, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.UserID.String(), string(r.GameType), r.Score, r.DifficultyAtPlay,
		r.CorrectAnswers, r.TotalQuestions, r.TimeTaken, formatTime(r.PlayedAt),
	)
	if err != nil {
		return storageErr("insert result", err)
	}
	return nil
}

func (t *performanceTx) SaveSkillLevel(ctx context.Context, userID uuid.UUID, gt domain.GameType, level float64) error {
	return saveSkillLevel(ctx, t.tx, userID, gt, level, time.Now())
}

func (t *performanceTx) SavePerformance(ctx context.Context, rec *domain.PerformanceRecord) error {
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	weak, err := json.Marshal(rec.WeakAreas)
	if err != nil {
		return fmt.Errorf("marshal weak_areas: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO performance_records (user_id, stats, weak_areas, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			stats=excluded.stats,
			weak_areas=excluded.weak_areas,
			updated_at=excluded.updated_at`,
		rec.UserID.String(), string(stats), string(weak),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return storageErr("upsert performance", err)
	}
	return nil
}

func (t *performanceTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (t *performanceTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storageErr("rollback", err)
	}
	return nil
}

func saveSkillLevel(ctx context.Context, q querier, userID uuid.UUID, gt domain.GameType, level float64, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO skill_levels (user_id, game_type, level, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, game_type) DO UPDATE SET
			level=excluded.level,
			updated_at=excluded.updated_at`,
		userID.String(), string(gt), level, formatTime(now),
	)
	if err != nil {
		return storageErr("upsert skill level", err)
	}
	return nil
}

func getPlayer(ctx context.Context, q querier, id uuid.UUID) (*domain.Player, error) {
	var (
		p                    domain.Player
		rawID                string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, username, created_at, updated_at
		FROM players WHERE id = ?`, id.String(),
	).Scan(&rawID, &p.Username, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, storageErr("get player", err)
	}

	if p.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse player id: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT game_type, level FROM skill_levels WHERE user_id = ?`, id.String())
	if err != nil {
		return nil, storageErr("get skill levels", err)
	}
	defer rows.Close()

	p.SkillLevels = domain.NewSkillLevels()
	for rows.Next() {
		var (
			gt    string
			level float64
		)
		if err := rows.Scan(&gt, &level); err != nil {
			return nil, storageErr("scan skill level", err)
		}
		p.SkillLevels.Set(domain.GameType(gt), level)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate skill levels", err)
	}

	return &p, nil
}

func getPerformance(ctx context.Context, q querier, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	var (
		stats, weak          string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT stats, weak_areas, created_at, updated_at
		FROM performance_records WHERE user_id = ?`, userID.String(),
	).Scan(&stats, &weak, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, storageErr("get performance", err)
	}

	// Stats start zeroed for every game type; the row overwrites the ones it has.
	rec := domain.NewPerformanceRecord(userID, time.Time{})
	if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	if err := json.Unmarshal([]byte(weak), &rec.WeakAreas); err != nil {
		return nil, fmt.Errorf("unmarshal weak_areas: %w", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return rec, nil
}

func scanResult(rows *sql.Rows) (*domain.GameResult, error) {
	var (
		r              domain.GameResult
		id, userID, gt string
		playedAt       string
	)
	if err := rows.Scan(&id, &userID, &gt, &r.Score, &r.DifficultyAtPlay,
		&r.CorrectAnswers, &r.TotalQuestions, &r.TimeTaken, &playedAt); err != nil {
		return nil, storageErr("scan result", err)
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse result id: %w", err)
	}
	if r.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if r.PlayedAt, err = parseTime(playedAt); err != nil {
		return nil, fmt.Errorf("parse played_at: %w", err)
	}
	r.GameType = domain.GameType(gt)
	return &r, nil
}

// Package postgres implements the performance store on PostgreSQL via pgx.
// It is selected when DATABASE_URL is set and lets several daemons share
// one database.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements performance.Store using PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements the storage interfaces
var (
	_ performance.Store = (*Store)(nil)
	_ performance.Tx    = (*storeTx)(nil)
)

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(pool), nil
}

// NewStore creates a new PostgreSQL store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

// CreatePlayer inserts a player and its initial skill levels
func (s *Store) CreatePlayer(ctx context.Context, p *domain.Player) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO players (id, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Username, p.CreatedAt, p.UpdatedAt)
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

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit player", err)
	}
	return nil
}

// GetPlayer retrieves a player with skill levels
func (s *Store) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return getPlayer(ctx, s.pool, id, false)
}

// GetPerformance retrieves a performance record
func (s *Store) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	return getPerformance(ctx, s.pool, userID)
}

// RecentResults returns up to limit results, newest first; empty gt matches all
func (s *Store) RecentResults(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	query := `
		SELECT id, user_id, game_type, score, difficulty, correct_answers,
			total_questions, time_taken, played_at
		FROM game_results
		WHERE user_id = $1 AND ($2 = '' OR game_type = $2)
		ORDER BY played_at DESC
		LIMIT $3
	`
	return s.queryResults(ctx, query, userID, string(gt), limit)
}

// ResultsSince returns results played at or after since, oldest first
func (s *Store) ResultsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.GameResult, error) {
	query := `
		SELECT id, user_id, game_type, score, difficulty, correct_answers,
			total_questions, time_taken, played_at
		FROM game_results
		WHERE user_id = $1 AND played_at >= $2
		ORDER BY played_at ASC
	`
	return s.queryResults(ctx, query, userID, since)
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]*domain.GameResult, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query results", err)
	}
	defer rows.Close()

	results := []*domain.GameResult{}
	for rows.Next() {
		var (
			r  domain.GameResult
			gt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &gt, &r.Score, &r.DifficultyAtPlay,
			&r.CorrectAnswers, &r.TotalQuestions, &r.TimeTaken, &r.PlayedAt); err != nil {
			return nil, storageErr("scan result", err)
		}
		r.GameType = domain.GameType(gt)
		r.PlayedAt = r.PlayedAt.UTC()
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate results", err)
	}
	return results, nil
}

// Begin starts a transaction. Reading the player inside it takes a row
// lock, so concurrent writers for one player queue in the database even
// without an external lock.
func (s *Store) Begin(ctx context.Context) (performance.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	return &storeTx{tx: tx}, nil
}

type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return getPlayer(ctx, t.tx, id, true)
}

func (t *storeTx) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	return getPerformance(ctx, t.tx, userID)
}

func (t *storeTx) AppendResult(ctx context.Context, r *domain.GameResult) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO game_results (id, user_id, game_type, score, difficulty,
			correct_answers, total_questions, time_taken, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.UserID, string(r.GameType), r.Score, r.DifficultyAtPlay,
		r.CorrectAnswers, r.TotalQuestions, r.TimeTaken, r.PlayedAt)
	if err != nil {
		return storageErr("insert result", err)
	}
	return nil
}

func (t *storeTx) SaveSkillLevel(ctx context.Context, userID uuid.UUID, gt domain.GameType, level float64) error {
	return saveSkillLevel(ctx, t.tx, userID, gt, level, time.Now())
}

func (t *storeTx) SavePerformance(ctx context.Context, rec *domain.PerformanceRecord) error {
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	weak, err := json.Marshal(rec.WeakAreas)
	if err != nil {
		return fmt.Errorf("marshal weak_areas: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO performance_records (user_id, stats, weak_areas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			stats = EXCLUDED.stats,
			weak_areas = EXCLUDED.weak_areas,
			updated_at = EXCLUDED.updated_at
	`, rec.UserID, stats, weak, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return storageErr("upsert performance", err)
	}
	return nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (t *storeTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return storageErr("rollback", err)
	}
	return nil
}

func saveSkillLevel(ctx context.Context, q querier, userID uuid.UUID, gt domain.GameType, level float64, now time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO skill_levels (user_id, game_type, level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_type) DO UPDATE SET
			level = EXCLUDED.level,
			updated_at = EXCLUDED.updated_at
	`, userID, string(gt), level, now)
	if err != nil {
		return storageErr("upsert skill level", err)
	}
	return nil
}

func getPlayer(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Player, error) {
	query := `SELECT id, username, created_at, updated_at FROM players WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var p domain.Player
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Username, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, storageErr("get player", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	rows, err := q.Query(ctx, `SELECT game_type, level FROM skill_levels WHERE user_id = $1`, id)
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
		stats, weak []byte
		rec         = domain.NewPerformanceRecord(userID, time.Time{})
	)
	err := q.QueryRow(ctx, `
		SELECT stats, weak_areas, created_at, updated_at
		FROM performance_records WHERE user_id = $1
	`, userID).Scan(&stats, &weak, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, storageErr("get performance", err)
	}

	if err := json.Unmarshal(stats, &rec.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	if err := json.Unmarshal(weak, &rec.WeakAreas); err != nil {
		return nil, fmt.Errorf("unmarshal weak_areas: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// storageErr marks a driver error as a storage failure. Data exceptions
// (class 22) and constraint violations (class 23) fail the same way on
// every attempt, so they are reported as invalid input and not retried.
func storageErr(op string, err error) error {
	if isDataError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageFailure, err)
}

func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package performance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// memStore is an in-memory Store. Transactions stage writes and apply them
// on Commit, so a failed commit leaves no trace.
type memStore struct {
	mu      sync.Mutex
	players map[uuid.UUID]*domain.Player
	records map[uuid.UUID]*domain.PerformanceRecord
	results []*domain.GameResult

	failCommits int   // number of upcoming commits that fail with ErrStorageFailure
	commitErr   error // when set, every commit fails with it
	commits     int
	begins      int
}

func newMemStore() *memStore {
	return &memStore{
		players: make(map[uuid.UUID]*domain.Player),
		records: make(map[uuid.UUID]*domain.PerformanceRecord),
	}
}

var _ Store = (*memStore)(nil)

func clonePlayer(p *domain.Player) *domain.Player {
	cp := *p
	cp.SkillLevels = p.SkillLevels.Clone()
	return &cp
}

func (m *memStore) CreatePlayer(ctx context.Context, p *domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; ok {
		return domain.ErrPlayerAlreadyExists
	}
	for _, existing := range m.players {
		if existing.Username == p.Username {
			return domain.ErrPlayerAlreadyExists
		}
	}
	m.players[p.ID] = clonePlayer(p)
	return nil
}

func (m *memStore) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (m *memStore) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (m *memStore) RecentResults(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.GameResult
	for _, r := range m.results {
		if r.UserID == userID && (gt == "" || r.GameType == gt) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ResultsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.GameResult
	for _, r := range m.results {
		if r.UserID == userID && !r.PlayedAt.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	m.begins++
	m.mu.Unlock()
	return &memTx{store: m, levels: make(map[domain.GameType]float64)}, nil
}

func (m *memStore) resultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

type memTx struct {
	store   *memStore
	results []*domain.GameResult
	userID  uuid.UUID
	levels  map[domain.GameType]float64
	record  *domain.PerformanceRecord
	done    bool
}

func (t *memTx) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return t.store.GetPlayer(ctx, id)
}

func (t *memTx) GetPerformance(ctx context.Context, userID uuid.UUID) (*domain.PerformanceRecord, error) {
	return t.store.GetPerformance(ctx, userID)
}

func (t *memTx) AppendResult(ctx context.Context, r *domain.GameResult) error {
	cp := *r
	t.results = append(t.results, &cp)
	return nil
}

func (t *memTx) SaveSkillLevel(ctx context.Context, userID uuid.UUID, gt domain.GameType, level float64) error {
	t.userID = userID
	t.levels[gt] = level
	return nil
}

func (t *memTx) SavePerformance(ctx context.Context, rec *domain.PerformanceRecord) error {
	t.record = rec.Clone()
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("tx already done")
	}
	t.done = true

	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return m.commitErr
	}
	if m.failCommits > 0 {
		m.failCommits--
		return fmt.Errorf("commit: %w", domain.ErrStorageFailure)
	}

	m.commits++
	m.results = append(m.results, t.results...)
	if p, ok := m.players[t.userID]; ok {
		for gt, lvl := range t.levels {
			p.SkillLevels.Set(gt, lvl)
		}
	}
	if t.record != nil {
		m.records[t.record.UserID] = t.record
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

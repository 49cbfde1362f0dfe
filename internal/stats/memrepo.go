package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-coach/internal/domain"
)

// memrepo keeps records in process; used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID     map[int64]*domain.GameRecord
	gamesByPlayer map[string][]*domain.GameRecord
	gamesByGameID map[string]*domain.GameRecord

	profiles map[string]*domain.CoachProfile
	now      func() time.Time
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:     make(map[int64]*domain.GameRecord),
		gamesByPlayer: make(map[string][]*domain.GameRecord),
		gamesByGameID: make(map[string]*domain.GameRecord),
		profiles:      make(map[string]*domain.CoachProfile),
		now:           time.Now,
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.GameID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByGameID[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := cloneGame(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesByGameID[key] = stored
	m.gamesByPlayer[stored.PlayerID] = append(m.gamesByPlayer[stored.PlayerID], stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByPlayer[playerID]
	if len(list) == 0 {
		return []*domain.GameRecord{}, nil
	}
	items := make([]*domain.GameRecord, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	// EndedAt desc, then ID desc.
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetProfile(ctx context.Context, playerID string) (*domain.CoachProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[strings.TrimSpace(playerID)]; ok && p != nil {
		return cloneProfile(p), nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.CoachProfile) error {
	if profile == nil {
		return nil
	}
	key := strings.TrimSpace(profile.PlayerID)
	stored := cloneProfile(profile)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	stored.UpdatedAt = now
	if prev, ok := m.profiles[key]; ok && !prev.CreatedAt.IsZero() {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	m.profiles[key] = stored
	return nil
}

func cloneGame(g *domain.GameRecord) *domain.GameRecord {
	c := *g
	c.MovesUCI = append([]string(nil), g.MovesUCI...)
	c.MovesSAN = append([]string(nil), g.MovesSAN...)
	c.Grades = cloneCounts(g.Grades)
	c.Categories = cloneCounts(g.Categories)
	return &c
}

func cloneProfile(p *domain.CoachProfile) *domain.CoachProfile {
	c := *p
	c.Grades = cloneCounts(p.Grades)
	c.Categories = cloneCounts(p.Categories)
	return &c
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

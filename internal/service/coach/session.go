package coach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-coach/internal/chess/rules"
	corecoach "github.com/park285/cheese-coach/internal/coach"
)

// Session is the stored state of one coached game. Moves holds every ply in
// UCI form, for both sides.
type Session struct {
	GameID       string       `json:"game_id"`
	PlayerID     string       `json:"player_id"`
	PlayerColor  string       `json:"player_color"`
	StartFEN     string       `json:"start_fen"`
	Moves        []string     `json:"moves"`
	MovesSAN     []string     `json:"moves_san"`
	Records      []MoveRecord `json:"records"`
	RecentErrors int          `json:"recent_errors"`
	GoodStreak   int          `json:"good_streak"`
	Undo         *UndoPoint   `json:"undo,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// MoveRecord keeps what the statistics need from one assessed move.
type MoveRecord struct {
	Ply         int    `json:"ply"`
	Grade       string `json:"grade"`
	Category    string `json:"category,omitempty"`
	Explanation string `json:"explanation"`
}

// UndoPoint is the session as it was before the last player move.
type UndoPoint struct {
	Moves        int `json:"moves"`
	Records      int `json:"records"`
	RecentErrors int `json:"recent_errors"`
	GoodStreak   int `json:"good_streak"`
}

func (s *Session) color() nchess.Color {
	c, _ := ParseColor(s.PlayerColor)
	return c
}

func (s *Session) tracker() *corecoach.Tracker {
	return corecoach.RestoreTracker(s.RecentErrors, s.GoodStreak)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Moves = append([]string(nil), s.Moves...)
	cp.MovesSAN = append([]string(nil), s.MovesSAN...)
	cp.Records = append([]MoveRecord(nil), s.Records...)
	if s.Undo != nil {
		u := *s.Undo
		cp.Undo = &u
	}
	return &cp
}

// replay rebuilds the current position from the start FEN and the move list.
func replay(s *Session) (*rules.Position, error) {
	pos, err := rules.FromFEN(s.StartFEN)
	if err != nil {
		return nil, err
	}
	for _, raw := range s.Moves {
		mv, err := rules.ParseUCI(raw)
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", raw, err)
		}
		if pos, err = pos.Apply(mv); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", raw, err)
		}
	}
	return pos, nil
}

// ParseColor accepts white/black and w/b.
func ParseColor(raw string) (nchess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return nchess.White, nil
	case "black", "b":
		return nchess.Black, nil
	}
	return nchess.NoColor, fmt.Errorf("%w: %q", ErrInvalidColor, raw)
}

func colorName(c nchess.Color) string {
	if c == nchess.Black {
		return "black"
	}
	return "white"
}

// Store keeps live sessions. Load returns nil, nil for an unknown game.
type Store interface {
	Load(ctx context.Context, gameID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, gameID string) error
}

func sessionKey(gameID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(gameID)))
	return "coach:sessions:" + hex.EncodeToString(hash[:])
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore keeps sessions in process. Sessions never expire.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (m *memoryStore) Load(ctx context.Context, gameID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionKey(gameID)].clone(), nil
}

func (m *memoryStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil coach session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(session.GameID)] = session.clone()
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(gameID))
	return nil
}

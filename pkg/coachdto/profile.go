package coachdto

import "time"

type Profile struct {
	PlayerID    string         `json:"player_id"`
	GamesPlayed int            `json:"games_played"`
	TotalMoves  int            `json:"total_moves"`
	Grades      map[string]int `json:"grades"`
	Categories  map[string]int `json:"categories"`
	Summary     string         `json:"summary,omitempty"`
	Suggestion  string         `json:"suggestion,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// GameReport is the end-of-game feedback.
type GameReport struct {
	GameID       string   `json:"game_id"`
	RecordID     int64    `json:"record_id"`
	Result       string   `json:"result"`
	Summary      string   `json:"summary"`
	Blunders     int      `json:"blunders"`
	Mistakes     int      `json:"mistakes"`
	Inaccuracies int      `json:"inaccuracies"`
	GoodMoves    int      `json:"good_moves"`
	TotalMoves   int      `json:"total_moves"`
	MainIssue    string   `json:"main_issue,omitempty"`
	Profile      *Profile `json:"profile,omitempty"`
}

type HistoryEntry struct {
	GameID      string    `json:"game_id"`
	PlayerColor string    `json:"player_color"`
	Result      string    `json:"result"`
	TotalMoves  int       `json:"total_moves"`
	Blunders    int       `json:"blunders"`
	MainIssue   string    `json:"main_issue,omitempty"`
	Summary     string    `json:"summary"`
	EndedAt     time.Time `json:"ended_at"`
}

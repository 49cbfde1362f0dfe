package domain

import "time"

// GameRecord is the persisted feedback for one finished coached game.
type GameRecord struct {
	ID           int64
	GameID       string
	PlayerID     string
	PlayerColor  string
	Result       string
	MovesUCI     []string
	MovesSAN     []string
	Grades       map[string]int
	Categories   map[string]int
	Summary      string
	Blunders     int
	Mistakes     int
	Inaccuracies int
	GoodMoves    int
	TotalMoves   int
	MainIssue    string
	StartedAt    time.Time
	EndedAt      time.Time
}

// CoachProfile aggregates every finished game of one player. Grades are
// keyed by grade name, Categories by explanation category.
type CoachProfile struct {
	PlayerID    string
	GamesPlayed int
	TotalMoves  int
	Grades      map[string]int
	Categories  map[string]int
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

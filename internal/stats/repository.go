package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/cheese-coach/internal/domain"
)

var ErrDuplicateGame = errors.New("coached game already recorded")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error)
	GetProfile(ctx context.Context, playerID string) (*domain.CoachProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.CoachProfile) error
}

// Schema creates the tables used by the Postgres repository.
const Schema = `
CREATE TABLE IF NOT EXISTS coach_games (
	id BIGSERIAL PRIMARY KEY,
	game_id TEXT NOT NULL UNIQUE,
	player_id TEXT NOT NULL,
	player_color TEXT NOT NULL,
	result TEXT NOT NULL DEFAULT '',
	moves_uci JSONB NOT NULL DEFAULT '[]',
	moves_san JSONB NOT NULL DEFAULT '[]',
	grades JSONB NOT NULL DEFAULT '{}',
	categories JSONB NOT NULL DEFAULT '{}',
	summary TEXT NOT NULL DEFAULT '',
	blunders INT NOT NULL DEFAULT 0,
	mistakes INT NOT NULL DEFAULT 0,
	inaccuracies INT NOT NULL DEFAULT 0,
	good_moves INT NOT NULL DEFAULT 0,
	total_moves INT NOT NULL DEFAULT 0,
	main_issue TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS coach_games_player_idx ON coach_games (player_id, ended_at DESC);
CREATE TABLE IF NOT EXISTS coach_profiles (
	player_id TEXT PRIMARY KEY,
	games_played INT NOT NULL DEFAULT 0,
	total_moves INT NOT NULL DEFAULT 0,
	grades JSONB NOT NULL DEFAULT '{}',
	categories JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// EnsureSchema applies Schema. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply coach schema: %w", err)
	}
	return nil
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game record payload")
	}

	movesUCI, err := json.Marshal(nonNilStrings(game.MovesUCI))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNilStrings(game.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}
	grades, err := json.Marshal(nonNilCounts(game.Grades))
	if err != nil {
		return 0, fmt.Errorf("marshal grades: %w", err)
	}
	categories, err := json.Marshal(nonNilCounts(game.Categories))
	if err != nil {
		return 0, fmt.Errorf("marshal categories: %w", err)
	}

	const query = `
		INSERT INTO coach_games (
			game_id,
			player_id,
			player_color,
			result,
			moves_uci,
			moves_san,
			grades,
			categories,
			summary,
			blunders,
			mistakes,
			inaccuracies,
			good_moves,
			total_moves,
			main_issue,
			started_at,
			ended_at
		)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.GameID,
		game.PlayerID,
		game.PlayerColor,
		game.Result,
		movesUCI,
		movesSAN,
		grades,
		categories,
		game.Summary,
		game.Blunders,
		game.Mistakes,
		game.Inaccuracies,
		game.GoodMoves,
		game.TotalMoves,
		game.MainIssue,
		game.StartedAt,
		game.EndedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert coached game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			game_id,
			player_id,
			player_color,
			result,
			moves_uci,
			moves_san,
			grades,
			categories,
			summary,
			blunders,
			mistakes,
			inaccuracies,
			good_moves,
			total_moves,
			main_issue,
			started_at,
			ended_at
		FROM coach_games
		WHERE player_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select coached games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		var (
			game                       domain.GameRecord
			movesUCI, movesSAN         []byte
			gradesJSON, categoriesJSON []byte
		)
		if err := rows.Scan(
			&game.ID,
			&game.GameID,
			&game.PlayerID,
			&game.PlayerColor,
			&game.Result,
			&movesUCI,
			&movesSAN,
			&gradesJSON,
			&categoriesJSON,
			&game.Summary,
			&game.Blunders,
			&game.Mistakes,
			&game.Inaccuracies,
			&game.GoodMoves,
			&game.TotalMoves,
			&game.MainIssue,
			&game.StartedAt,
			&game.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coached game: %w", err)
		}
		if err := json.Unmarshal(movesUCI, &game.MovesUCI); err != nil {
			return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
		if err := json.Unmarshal(movesSAN, &game.MovesSAN); err != nil {
			return nil, fmt.Errorf("unmarshal moves_san: %w", err)
		}
		if err := json.Unmarshal(gradesJSON, &game.Grades); err != nil {
			return nil, fmt.Errorf("unmarshal grades: %w", err)
		}
		if err := json.Unmarshal(categoriesJSON, &game.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories: %w", err)
		}
		games = append(games, &game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coached games: %w", err)
	}
	return games, nil
}

func (r *repository) GetProfile(ctx context.Context, playerID string) (*domain.CoachProfile, error) {
	const query = `
		SELECT
			player_id,
			games_played,
			total_moves,
			grades,
			categories,
			updated_at,
			created_at
		FROM coach_profiles
		WHERE player_id = $1
		LIMIT 1`

	var (
		profile                    domain.CoachProfile
		gradesJSON, categoriesJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&profile.PlayerID,
		&profile.GamesPlayed,
		&profile.TotalMoves,
		&gradesJSON,
		&categoriesJSON,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select coach profile: %w", err)
	}
	if err := json.Unmarshal(gradesJSON, &profile.Grades); err != nil {
		return nil, fmt.Errorf("unmarshal profile grades: %w", err)
	}
	if err := json.Unmarshal(categoriesJSON, &profile.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal profile categories: %w", err)
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.CoachProfile) error {
	if profile == nil {
		return fmt.Errorf("nil coach profile payload")
	}
	grades, err := json.Marshal(nonNilCounts(profile.Grades))
	if err != nil {
		return fmt.Errorf("marshal profile grades: %w", err)
	}
	categories, err := json.Marshal(nonNilCounts(profile.Categories))
	if err != nil {
		return fmt.Errorf("marshal profile categories: %w", err)
	}
	const query = `
		INSERT INTO coach_profiles (
			player_id,
			games_played,
			total_moves,
			grades,
			categories,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, NOW(), NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			total_moves = EXCLUDED.total_moves,
			grades = EXCLUDED.grades,
			categories = EXCLUDED.categories,
			updated_at = NOW()`

	_, err = r.db.ExecContext(
		ctx,
		query,
		profile.PlayerID,
		profile.GamesPlayed,
		profile.TotalMoves,
		grades,
		categories,
	)
	if err != nil {
		return fmt.Errorf("upsert coach profile: %w", err)
	}
	return nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilCounts(v map[string]int) map[string]int {
	if v == nil {
		return map[string]int{}
	}
	return v
}

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/cheese-coach/internal/domain"
)

func TestMemoryRepositoryGames(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"g1", "g2", "g3"} {
		rec := &domain.GameRecord{GameID: id, PlayerID: "alice", EndedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := repo.InsertGame(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if _, err := repo.InsertGame(ctx, &domain.GameRecord{GameID: "g2", PlayerID: "alice"}); !errors.Is(err, ErrDuplicateGame) {
		t.Fatalf("duplicate insert err = %v", err)
	}

	games, err := repo.GetRecentGames(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var ids []string
	for _, g := range games {
		ids = append(ids, g.GameID)
	}
	if diff := cmp.Diff([]string{"g3", "g2"}, ids); diff != "" {
		t.Fatalf("recent order (-want +got):\n%s", diff)
	}

	none, err := repo.GetRecentGames(ctx, "bob", 5)
	if err != nil || len(none) != 0 {
		t.Fatalf("bob games = %v, %v", none, err)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := &domain.GameRecord{GameID: "g1", PlayerID: "alice", Grades: map[string]int{"BEST": 1}}
	if _, err := repo.InsertGame(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Grades["BEST"] = 99

	games, _ := repo.GetRecentGames(ctx, "alice", 0)
	if games[0].Grades["BEST"] != 1 {
		t.Fatalf("stored record aliased caller map")
	}
}

func TestMemoryRepositoryProfiles(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	p, err := repo.GetProfile(ctx, "alice")
	if err != nil || p != nil {
		t.Fatalf("missing profile = %v, %v", p, err)
	}

	prof := NewProfile("alice")
	prof.GamesPlayed = 1
	prof.Categories["forks"] = 2
	if err := repo.UpsertProfile(ctx, prof); err != nil {
		t.Fatal(err)
	}
	first, _ := repo.GetProfile(ctx, "alice")

	prof.GamesPlayed = 2
	if err := repo.UpsertProfile(ctx, prof); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetProfile(ctx, "alice")
	if got.GamesPlayed != 2 || got.Categories["forks"] != 2 {
		t.Fatalf("profile = %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at moved from %v to %v", first.CreatedAt, got.CreatedAt)
	}
}

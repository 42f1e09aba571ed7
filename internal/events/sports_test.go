package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupSportsDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE sports_games (
			id TEXT PRIMARY KEY,
			team_name TEXT NOT NULL,
			opponent TEXT NOT NULL,
			start_time TEXT NOT NULL,
			home_game INTEGER NOT NULL DEFAULT 0
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestSQLiteSportsProvider(t *testing.T) {
	db := setupSportsDB(t)
	p := NewSQLiteSportsProvider(db)
	ctx := context.Background()

	games := []Game{
		{ID: "g1", TeamName: "Broncos", Opponent: "Raiders", StartTime: day(2025, 9, 8).Add(18 * time.Hour), HomeGame: true},
		{ID: "g2", TeamName: "Nuggets", Opponent: "Lakers", StartTime: day(2025, 9, 10).Add(19 * time.Hour)},
		{ID: "g3", TeamName: "Broncos", Opponent: "Chiefs", StartTime: day(2025, 9, 20).Add(18 * time.Hour)},
	}
	for _, g := range games {
		if err := p.PutGame(ctx, g); err != nil {
			t.Fatalf("PutGame(%s) error = %v", g.ID, err)
		}
	}

	got, err := p.GamesInRange(ctx, []string{"broncos", "nuggets"}, day(2025, 9, 8), day(2025, 9, 15))
	if err != nil {
		t.Fatalf("GamesInRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GamesInRange() returned %d games, want 2 (g3 outside range)", len(got))
	}
	if got[0].ID != "g1" || got[1].ID != "g2" {
		t.Errorf("games out of start-time order: %v", got)
	}
	if !got[0].HomeGame {
		t.Error("g1 HomeGame = false, want true")
	}
	if !got[0].StartTime.Equal(games[0].StartTime) {
		t.Errorf("g1 StartTime = %v, want %v", got[0].StartTime, games[0].StartTime)
	}
}

func TestGamesInRangeNoTeams(t *testing.T) {
	db := setupSportsDB(t)
	p := NewSQLiteSportsProvider(db)

	got, err := p.GamesInRange(context.Background(), nil, day(2025, 9, 1), day(2025, 9, 30))
	if err != nil {
		t.Fatalf("GamesInRange() error = %v", err)
	}
	if got != nil {
		t.Errorf("GamesInRange() = %v, want nil", got)
	}
}

func TestPutGameUpsert(t *testing.T) {
	db := setupSportsDB(t)
	p := NewSQLiteSportsProvider(db)
	ctx := context.Background()

	g := Game{ID: "g1", TeamName: "Broncos", Opponent: "Raiders", StartTime: day(2025, 9, 8).Add(18 * time.Hour)}
	if err := p.PutGame(ctx, g); err != nil {
		t.Fatalf("PutGame() error = %v", err)
	}

	// Rescheduled game replaces the old row.
	g.StartTime = day(2025, 9, 9).Add(18 * time.Hour)
	if err := p.PutGame(ctx, g); err != nil {
		t.Fatalf("PutGame() upsert error = %v", err)
	}

	got, err := p.GamesInRange(ctx, []string{"broncos"}, day(2025, 9, 1), day(2025, 9, 30))
	if err != nil {
		t.Fatalf("GamesInRange() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("game count = %d, want 1", len(got))
	}
	if !got[0].StartTime.Equal(g.StartTime) {
		t.Errorf("StartTime = %v, want rescheduled %v", got[0].StartTime, g.StartTime)
	}
}

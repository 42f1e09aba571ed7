package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SportsProvider supplies scheduled games for followed teams. A provider may
// return an empty list when no data source is configured; callers must treat
// that as "no games", not an error.
type SportsProvider interface {
	GamesInRange(ctx context.Context, teams []string, start, end time.Time) ([]Game, error)
}

// SQLiteSportsProvider reads games from the local sports_games table, which
// an external sync job keeps populated.
type SQLiteSportsProvider struct {
	db *sql.DB
}

// NewSQLiteSportsProvider creates a provider backed by the given database.
func NewSQLiteSportsProvider(db *sql.DB) *SQLiteSportsProvider {
	return &SQLiteSportsProvider{db: db}
}

// GamesInRange returns games for the named teams with start times in
// [start, end), ordered by start time. Team matching is case-insensitive.
func (p *SQLiteSportsProvider) GamesInRange(ctx context.Context, teams []string, start, end time.Time) ([]Game, error) {
	if len(teams) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(teams))
	args := make([]any, 0, len(teams)+2)
	for i, team := range teams {
		placeholders[i] = "?"
		args = append(args, strings.ToLower(team))
	}
	args = append(args, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))

	query := fmt.Sprintf(`
		SELECT id, team_name, opponent, start_time, home_game
		FROM sports_games
		WHERE LOWER(team_name) IN (%s) AND start_time >= ? AND start_time < ?
		ORDER BY start_time`, strings.Join(placeholders, ", "))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		var startTime string
		var home int
		if err := rows.Scan(&g.ID, &g.TeamName, &g.Opponent, &startTime, &home); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		t, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			return nil, fmt.Errorf("parsing game start time: %w", err)
		}
		g.StartTime = t
		g.HomeGame = home != 0
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games: %w", err)
	}
	return games, nil
}

// PutGame inserts or replaces a game record. Used by the sync job and tests.
func (p *SQLiteSportsProvider) PutGame(ctx context.Context, g Game) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sports_games (id, team_name, opponent, start_time, home_game)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			team_name = excluded.team_name,
			opponent = excluded.opponent,
			start_time = excluded.start_time,
			home_game = excluded.home_game`,
		g.ID, g.TeamName, g.Opponent, g.StartTime.UTC().Format(time.RFC3339), boolToInt(g.HomeGame),
	)
	if err != nil {
		return fmt.Errorf("storing game: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

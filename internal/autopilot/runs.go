package autopilot

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is the bookkeeping record for one regeneration cycle.
type Run struct {
	ID         string
	UserID     string
	StartedAt  time.Time
	ItemCount  int
	EventCount int
	Forced     bool
}

// RunRepository records regeneration cycles.
type RunRepository interface {
	Record(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, userID string, limit int) ([]Run, error)
}

// SQLiteRunRepository implements RunRepository using SQLite.
type SQLiteRunRepository struct {
	db *sql.DB
}

// NewSQLiteRunRepository creates a new SQLite-backed run repository.
func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

// Record stores one run.
func (r *SQLiteRunRepository) Record(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO autopilot_runs (id, user_id, started_at, item_count, event_count, forced)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.UserID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.ItemCount,
		run.EventCount,
		boolToInt(run.Forced),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRecent returns the most recent runs for a user, newest first.
func (r *SQLiteRunRepository) ListRecent(ctx context.Context, userID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, started_at, item_count, event_count, forced
		FROM autopilot_runs
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		var forced int
		if err := rows.Scan(&run.ID, &run.UserID, &startedAt, &run.ItemCount, &run.EventCount, &forced); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
			run.StartedAt = t
		}
		run.Forced = forced != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lumina-io/lumina-core/internal/schedule"
)

// ErrNoSnapshot indicates no stored preferences exist for a user yet.
var ErrNoSnapshot = errors.New("learning: no preferences snapshot")

// Repository persists feedback records and derived preference snapshots.
type Repository interface {
	AppendFeedback(ctx context.Context, rec FeedbackRecord) error
	ListFeedback(ctx context.Context, userID string) ([]FeedbackRecord, error)
	SaveSnapshot(ctx context.Context, userID string, prefs *Preferences) error
	GetSnapshot(ctx context.Context, userID string) (*Preferences, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// AppendFeedback stores one feedback record.
func (r *SQLiteRepository) AppendFeedback(ctx context.Context, rec FeedbackRecord) error {
	beforeColors, err := marshalOrNull(rec.BeforeColors, len(rec.BeforeColors) > 0)
	if err != nil {
		return fmt.Errorf("marshalling before colors: %w", err)
	}
	afterColors, err := marshalOrNull(rec.AfterColors, len(rec.AfterColors) > 0)
	if err != nil {
		return fmt.Errorf("marshalling after colors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO feedback_records (
			id, user_id, schedule_item_id, pattern_name, trigger_type,
			feedback_type, effect_id, after_effect_id, before_colors,
			after_colors, scheduled_hour, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.ScheduleItemID,
		rec.PatternName,
		string(rec.Trigger),
		string(rec.FeedbackType),
		nullableInt(rec.EffectID),
		nullableInt(rec.AfterEffectID),
		beforeColors,
		afterColors,
		rec.ScheduledHour,
		rec.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting feedback record: %w", err)
	}
	return nil
}

// ListFeedback returns all feedback for a user, oldest first. Individual
// records that fail to decode are skipped so one corrupt row cannot poison
// the whole recomputation.
func (r *SQLiteRepository) ListFeedback(ctx context.Context, userID string) ([]FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, schedule_item_id, pattern_name, trigger_type,
			feedback_type, effect_id, after_effect_id, before_colors,
			after_colors, scheduled_hour, created_at
		FROM feedback_records
		WHERE user_id = ?
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		rec, ok := scanFeedback(rows)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback: %w", err)
	}
	return records, nil
}

// scanFeedback decodes one row; ok is false when the row is malformed.
func scanFeedback(rows *sql.Rows) (FeedbackRecord, bool) {
	var rec FeedbackRecord
	var trigger, feedbackType, createdAt string
	var effectID, afterEffectID sql.NullInt64
	var beforeColors, afterColors sql.NullString

	err := rows.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ScheduleItemID,
		&rec.PatternName,
		&trigger,
		&feedbackType,
		&effectID,
		&afterEffectID,
		&beforeColors,
		&afterColors,
		&rec.ScheduledHour,
		&createdAt,
	)
	if err != nil {
		return rec, false
	}

	rec.Trigger = schedule.Trigger(trigger)
	rec.FeedbackType = FeedbackType(feedbackType)
	if !validFeedbackTypes[rec.FeedbackType] {
		return rec, false
	}

	if effectID.Valid {
		v := int(effectID.Int64)
		rec.EffectID = &v
	}
	if afterEffectID.Valid {
		v := int(afterEffectID.Int64)
		rec.AfterEffectID = &v
	}
	if beforeColors.Valid {
		if err := json.Unmarshal([]byte(beforeColors.String), &rec.BeforeColors); err != nil {
			return rec, false
		}
	}
	if afterColors.Valid {
		if err := json.Unmarshal([]byte(afterColors.String), &rec.AfterColors); err != nil {
			return rec, false
		}
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return rec, false
	}
	rec.Timestamp = t
	return rec, true
}

// SaveSnapshot stores the derived preferences for a user, replacing any
// prior snapshot.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, userID string, prefs *Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshalling preferences: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learned_preferences (user_id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		userID, string(data), prefs.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing preferences snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads the stored preferences for a user.
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, userID string) (*Preferences, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		"SELECT snapshot FROM learned_preferences WHERE user_id = ?", userID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("querying preferences snapshot: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return nil, fmt.Errorf("decoding preferences snapshot: %w", err)
	}
	return &prefs, nil
}

func marshalOrNull(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

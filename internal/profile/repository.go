package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for profile persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id string) error

	// SetLastGenerated updates only the last-generated timestamp.
	// This is the orchestrator's single write into the profile.
	SetLastGenerated(ctx context.Context, id string, at time.Time) error
}

// profileColumns is the SELECT column list for profile queries.
const profileColumns = `id, name, autopilot_enabled, autonomy_level, vibe_level, change_tolerance,
			latitude, longitude,
			favorite_holidays, custom_holidays, followed_teams, team_colors,
			preferred_styles, disliked_styles, compliance, controllers,
			last_schedule_generated, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a profile by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying profile by id: %w", err)
	}
	return p, nil
}

// List retrieves all profiles ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning profile: %w", scanErr)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return profiles, nil
}

// Create inserts a new profile.
func (r *SQLiteRepository) Create(ctx context.Context, p *Profile) error {
	cols, err := marshalProfileColumns(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO profiles (
			id, name, autopilot_enabled, autonomy_level, vibe_level, change_tolerance,
			latitude, longitude,
			favorite_holidays, custom_holidays, followed_teams, team_colors,
			preferred_styles, disliked_styles, compliance, controllers,
			last_schedule_generated, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		boolToInt(p.AutopilotEnabled),
		p.AutonomyLevel,
		p.VibeLevel,
		p.ChangeTolerance,
		p.Latitude,
		p.Longitude,
		cols.favoriteHolidays,
		cols.customHolidays,
		cols.followedTeams,
		cols.teamColors,
		cols.preferredStyles,
		cols.dislikedStyles,
		cols.compliance,
		cols.controllers,
		nullableTime(p.LastScheduleGenerated),
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// Update modifies an existing profile.
func (r *SQLiteRepository) Update(ctx context.Context, p *Profile) error {
	cols, err := marshalProfileColumns(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE profiles SET
			name = ?, autopilot_enabled = ?, autonomy_level = ?, vibe_level = ?,
			change_tolerance = ?, latitude = ?, longitude = ?,
			favorite_holidays = ?, custom_holidays = ?,
			followed_teams = ?, team_colors = ?, preferred_styles = ?,
			disliked_styles = ?, compliance = ?, controllers = ?,
			last_schedule_generated = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		boolToInt(p.AutopilotEnabled),
		p.AutonomyLevel,
		p.VibeLevel,
		p.ChangeTolerance,
		p.Latitude,
		p.Longitude,
		cols.favoriteHolidays,
		cols.customHolidays,
		cols.followedTeams,
		cols.teamColors,
		cols.preferredStyles,
		cols.dislikedStyles,
		cols.compliance,
		cols.controllers,
		nullableTime(p.LastScheduleGenerated),
		p.UpdatedAt.Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return checkRowsAffected(result)
}

// Delete removes a profile by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return checkRowsAffected(result)
}

// SetLastGenerated updates the last-generated timestamp for a profile.
func (r *SQLiteRepository) SetLastGenerated(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET last_schedule_generated = ?, updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating last generated: %w", err)
	}
	return checkRowsAffected(result)
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(scanner rowScanner) (*Profile, error) {
	var p Profile
	var enabled int
	var favoriteHolidays, customHolidays, followedTeams string
	var teamColors, preferredStyles, dislikedStyles sql.NullString
	var compliance, controllers string
	var lastGenerated sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&enabled,
		&p.AutonomyLevel,
		&p.VibeLevel,
		&p.ChangeTolerance,
		&p.Latitude,
		&p.Longitude,
		&favoriteHolidays,
		&customHolidays,
		&followedTeams,
		&teamColors,
		&preferredStyles,
		&dislikedStyles,
		&compliance,
		&controllers,
		&lastGenerated,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AutopilotEnabled = enabled != 0

	if err := unmarshalJSON(favoriteHolidays, &p.FavoriteHolidays); err != nil {
		return nil, fmt.Errorf("unmarshalling favorite holidays: %w", err)
	}
	if err := unmarshalJSON(customHolidays, &p.CustomHolidays); err != nil {
		return nil, fmt.Errorf("unmarshalling custom holidays: %w", err)
	}
	if err := unmarshalJSON(followedTeams, &p.FollowedTeams); err != nil {
		return nil, fmt.Errorf("unmarshalling followed teams: %w", err)
	}
	if teamColors.Valid {
		if err := unmarshalJSON(teamColors.String, &p.TeamColors); err != nil {
			return nil, fmt.Errorf("unmarshalling team colors: %w", err)
		}
	}
	if preferredStyles.Valid {
		if err := unmarshalJSON(preferredStyles.String, &p.PreferredStyles); err != nil {
			return nil, fmt.Errorf("unmarshalling preferred styles: %w", err)
		}
	}
	if dislikedStyles.Valid {
		if err := unmarshalJSON(dislikedStyles.String, &p.DislikedStyles); err != nil {
			return nil, fmt.Errorf("unmarshalling disliked styles: %w", err)
		}
	}
	if err := unmarshalJSON(compliance, &p.Compliance); err != nil {
		return nil, fmt.Errorf("unmarshalling compliance: %w", err)
	}
	if err := unmarshalJSON(controllers, &p.Controllers); err != nil {
		return nil, fmt.Errorf("unmarshalling controllers: %w", err)
	}

	if lastGenerated.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastGenerated.String); parseErr == nil {
			p.LastScheduleGenerated = &t
		}
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		p.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		p.UpdatedAt = t
	}

	return &p, nil
}

// profileJSONColumns holds the marshalled JSON column values for a profile.
type profileJSONColumns struct {
	favoriteHolidays string
	customHolidays   string
	followedTeams    string
	teamColors       sql.NullString
	preferredStyles  sql.NullString
	dislikedStyles   sql.NullString
	compliance       string
	controllers      string
}

func marshalProfileColumns(p *Profile) (profileJSONColumns, error) {
	var cols profileJSONColumns
	var err error

	if cols.favoriteHolidays, err = marshalJSON(p.FavoriteHolidays); err != nil {
		return cols, fmt.Errorf("marshalling favorite holidays: %w", err)
	}
	if cols.customHolidays, err = marshalJSON(p.CustomHolidays); err != nil {
		return cols, fmt.Errorf("marshalling custom holidays: %w", err)
	}
	if cols.followedTeams, err = marshalJSON(p.FollowedTeams); err != nil {
		return cols, fmt.Errorf("marshalling followed teams: %w", err)
	}
	if cols.compliance, err = marshalJSON(p.Compliance); err != nil {
		return cols, fmt.Errorf("marshalling compliance: %w", err)
	}
	if cols.controllers, err = marshalJSON(p.Controllers); err != nil {
		return cols, fmt.Errorf("marshalling controllers: %w", err)
	}

	cols.teamColors, err = marshalNullable(p.TeamColors, len(p.TeamColors) > 0)
	if err != nil {
		return cols, fmt.Errorf("marshalling team colors: %w", err)
	}
	cols.preferredStyles, err = marshalNullable(p.PreferredStyles, len(p.PreferredStyles) > 0)
	if err != nil {
		return cols, fmt.Errorf("marshalling preferred styles: %w", err)
	}
	cols.dislikedStyles, err = marshalNullable(p.DislikedStyles, len(p.DislikedStyles) > 0)
	if err != nil {
		return cols, fmt.Errorf("marshalling disliked styles: %w", err)
	}

	return cols, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalNullable(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

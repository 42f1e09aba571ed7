package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository persists the controller registry.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Controller, error)
	List(ctx context.Context) ([]Controller, error)
	ListByProfile(ctx context.Context, profileID string) ([]Controller, error)
	Create(ctx context.Context, c *Controller) error
	Update(ctx context.Context, c *Controller) error
	Delete(ctx context.Context, id string) error
	SetOnline(ctx context.Context, id string, online bool, at time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const controllerColumns = `id, name, profile_id, online, last_seen, created_at, updated_at`

// GetByID retrieves a controller by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Controller, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+controllerColumns+` FROM controllers WHERE id = ?`, id)
	c, err := scanController(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying controller: %w", err)
	}
	return c, nil
}

// List retrieves all controllers ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Controller, error) {
	return r.list(ctx, `SELECT `+controllerColumns+` FROM controllers ORDER BY name`)
}

// ListByProfile retrieves the controllers assigned to a profile.
func (r *SQLiteRepository) ListByProfile(ctx context.Context, profileID string) ([]Controller, error) {
	return r.list(ctx,
		`SELECT `+controllerColumns+` FROM controllers WHERE profile_id = ? ORDER BY name`,
		profileID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]Controller, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying controllers: %w", err)
	}
	defer rows.Close()

	var out []Controller
	for rows.Next() {
		c, scanErr := scanController(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning controller: %w", scanErr)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating controllers: %w", err)
	}
	return out, nil
}

// Create inserts a new controller.
func (r *SQLiteRepository) Create(ctx context.Context, c *Controller) error {
	if err := c.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO controllers (id, name, profile_id, online, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		nullableString(c.ProfileID),
		boolToInt(c.Online),
		nullableTime(c.LastSeen),
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return ErrExists
		}
		return fmt.Errorf("inserting controller: %w", err)
	}
	return nil
}

// Update modifies an existing controller.
func (r *SQLiteRepository) Update(ctx context.Context, c *Controller) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE controllers SET
			name = ?, profile_id = ?, online = ?, last_seen = ?, updated_at = ?
		WHERE id = ?`,
		c.Name,
		nullableString(c.ProfileID),
		boolToInt(c.Online),
		nullableTime(c.LastSeen),
		c.UpdatedAt.Format(time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating controller: %w", err)
	}
	return checkRowsAffected(result)
}

// Delete removes a controller.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM controllers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting controller: %w", err)
	}
	return checkRowsAffected(result)
}

// SetOnline records a presence change observed on the status topic.
func (r *SQLiteRepository) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE controllers SET online = ?, last_seen = ?, updated_at = ? WHERE id = ?`,
		boolToInt(online),
		at.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating controller status: %w", err)
	}
	return checkRowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanController(scanner rowScanner) (*Controller, error) {
	var c Controller
	var profileID, lastSeen sql.NullString
	var online int
	var createdAt, updatedAt string

	err := scanner.Scan(&c.ID, &c.Name, &profileID, &online, &lastSeen, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.Online = online != 0
	if profileID.Valid {
		c.ProfileID = profileID.String
	}
	if lastSeen.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastSeen.String); parseErr == nil {
			c.LastSeen = &t
		}
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		c.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		c.UpdatedAt = t
	}
	return &c, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
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

package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE controllers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			profile_id TEXT,
			online INTEGER NOT NULL DEFAULT 0,
			last_seen TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestCreateAndGetController(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := &Controller{ID: "ctrl-porch", Name: "Porch Eaves", ProfileID: "profile-1"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ctrl-porch")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Porch Eaves" || got.ProfileID != "profile-1" {
		t.Errorf("controller = %+v", got)
	}
	if got.Online {
		t.Error("new controller reported online")
	}
}

func TestCreateControllerValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	if err := repo.Create(context.Background(), &Controller{Name: "no id"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Create() error = %v, want ErrInvalid", err)
	}
	if err := repo.Create(context.Background(), &Controller{ID: "x"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Create() error = %v, want ErrInvalid", err)
	}
}

func TestCreateDuplicateController(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := &Controller{ID: "ctrl-1", Name: "First"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &Controller{ID: "ctrl-1", Name: "Second"}); !errors.Is(err, ErrExists) {
		t.Errorf("Create() duplicate error = %v, want ErrExists", err)
	}
}

func TestListByProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	controllers := []Controller{
		{ID: "c1", Name: "Eaves", ProfileID: "p1"},
		{ID: "c2", Name: "Deck", ProfileID: "p1"},
		{ID: "c3", Name: "Garage", ProfileID: "p2"},
	}
	for i := range controllers {
		if err := repo.Create(ctx, &controllers[i]); err != nil {
			t.Fatalf("Create(%s) error = %v", controllers[i].ID, err)
		}
	}

	got, err := repo.ListByProfile(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByProfile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByProfile() returned %d controllers, want 2", len(got))
	}
	// Ordered by name: Deck before Eaves.
	if got[0].ID != "c2" || got[1].ID != "c1" {
		t.Errorf("ListByProfile() order = %s, %s", got[0].ID, got[1].ID)
	}
}

func TestSetOnline(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := &Controller{ID: "ctrl-1", Name: "Eaves"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	seen := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SetOnline(ctx, "ctrl-1", true, seen); err != nil {
		t.Fatalf("SetOnline() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ctrl-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Online {
		t.Error("Online = false after SetOnline(true)")
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}

	if err := repo.SetOnline(ctx, "missing", true, seen); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetOnline() missing error = %v, want ErrNotFound", err)
	}
}

func TestDeleteController(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := &Controller{ID: "ctrl-1", Name: "Eaves"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, "ctrl-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "ctrl-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

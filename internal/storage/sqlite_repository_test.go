package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/flow/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "flow-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func TestSQLiteLoadEmpty(t *testing.T) {
	repo := setupRepo(t)
	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot, got %#v", snap)
	}
	if _, err := repo.SavedAt(context.Background()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteSaveOverwritesSingleRow(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	first := Snapshot{Tasks: []model.Task{model.NewTask("a", "first", now)}, LastSaved: now}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := Snapshot{
		Tasks: []model.Task{
			model.NewTask("b", "second", now),
			model.NewTask("a", "first", now),
		},
		TotalFocusMinutes: 50,
		LastSaved:         now.Add(time.Minute),
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one snapshot row, got %d", rows)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].ID != "b" || got.TotalFocusMinutes != 50 {
		t.Fatalf("unexpected snapshot: %#v", got)
	}
	savedAt, err := repo.SavedAt(ctx)
	if err != nil {
		t.Fatalf("saved at: %v", err)
	}
	if !savedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected saved_at: %s", savedAt)
	}
}

func TestOpenSQLiteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "flow.db")
	repo, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	snap, err := repo.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("expected empty store, got %#v, %v", snap, err)
	}
}

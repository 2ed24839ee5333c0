package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateCollisionFree(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nested", "root"))

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		dir, err := m.Create()
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[dir] {
			t.Fatalf("duplicate workspace %s", dir)
		}
		seen[dir] = true
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("workspace not on disk: %v", err)
		}
	}
}

func TestWriteAndReadSource(t *testing.T) {
	m := NewManager(t.TempDir())
	dir, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	path, err := m.WriteSource(dir, "solution.py", "print('hi')\n")
	if err != nil {
		t.Fatalf("write source: %v", err)
	}
	content, err := m.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if content != "print('hi')\n" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())
	dir, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	m.Remove(ctx, dir)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("workspace still exists after remove")
	}
	// Removing an already-deleted workspace must be a no-op.
	m.Remove(ctx, dir)
	m.Remove(ctx, "")
}

func TestDeleteFileMissingIsNotAnError(t *testing.T) {
	m := NewManager(t.TempDir())
	m.DeleteFile(context.Background(), filepath.Join(m.Root(), "never-existed.txt"))
}

func TestSweepStale(t *testing.T) {
	m := NewManager(t.TempDir())
	ctx := context.Background()

	stale, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed := m.SweepStale(ctx, 30*time.Minute)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale workspace survived sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh workspace was swept")
	}
}

func TestSweepMissingRoot(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if removed := m.SweepStale(context.Background(), time.Minute); removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}

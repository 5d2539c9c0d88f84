package store

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func rowsFor(t *testing.T, gameIDs ...string) []ArchiveTurnRow {
	t.Helper()
	m, raw := parsedMap(t)
	var rows []ArchiveTurnRow
	for _, id := range gameIDs {
		row, err := NewArchiveTurnRow(id, "test", m, raw)
		if err != nil {
			t.Fatalf("NewArchiveTurnRow: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestArchivedGameIDs(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, rowsFor(t, "b", "a", "a")...)
	writeBatch(t, dir, rowsFor(t, "c", "b")...)

	// Unfinished batches live in tmp and must not be read.
	if err := os.WriteFile(filepath.Join(dir, "tmp", "batch_0.parquet"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("write partial batch: %v", err)
	}

	ids, err := ArchivedGameIDs(context.Background(), dir)
	if err != nil {
		t.Fatalf("ArchivedGameIDs: %v", err)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(ids, want) {
		t.Fatalf("ArchivedGameIDs=%v want %v", ids, want)
	}
}

func TestArchivedGameIDs_EmptyDir(t *testing.T) {
	ids, err := ArchivedGameIDs(context.Background(), t.TempDir())
	if err != nil || len(ids) != 0 {
		t.Fatalf("ArchivedGameIDs=%v err=%v want none", ids, err)
	}
}

func TestSeedGameLog(t *testing.T) {
	dir := t.TempDir()
	writeBatch(t, dir, rowsFor(t, "a", "b", "c")...)

	logPath := filepath.Join(t.TempDir(), "archived.log")
	l, err := OpenGameLog(logPath)
	if err != nil {
		t.Fatalf("OpenGameLog: %v", err)
	}
	defer l.Close()
	if err := l.Add("a"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	added, err := SeedGameLog(context.Background(), l, dir)
	if err != nil {
		t.Fatalf("SeedGameLog: %v", err)
	}
	if added != 2 || !l.Has("b") || !l.Has("c") || l.Count() != 3 {
		t.Fatalf("added=%d count=%d want 2 and 3", added, l.Count())
	}

	again, err := SeedGameLog(context.Background(), l, dir)
	if err != nil || again != 0 {
		t.Fatalf("second SeedGameLog added=%d err=%v want 0", again, err)
	}
}

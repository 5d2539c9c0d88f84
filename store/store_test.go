package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brensch/halite/hlt"
)

const testSnapshot = "2 " +
	"0 1 3 10.5 20.25 200 0 0 2 9 5 0 " +
	"1 1 4 40 40 255 0 0 0 0 0 0 " +
	"1 9 12 22 1500 3.5 3 1 800 1 0 1 3"

func parsedMap(t *testing.T) (*hlt.Map, []string) {
	t.Helper()
	m, err := hlt.NewMap(60, 40, 0, hlt.Options{})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	raw := strings.Fields(testSnapshot + " extra")
	if _, err := m.Update(hlt.NewTokens(raw)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return m, raw
}

// writeBatch writes rows as one finished batch in dir and returns its path.
func writeBatch(t *testing.T, dir string, rows ...ArchiveTurnRow) string {
	t.Helper()
	w, err := NewBatchWriter(dir)
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, _, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return out
}

func TestNewArchiveTurnRow(t *testing.T) {
	m, raw := parsedMap(t)
	row, err := NewArchiveTurnRow("g1", "test", m, raw)
	if err != nil {
		t.Fatalf("NewArchiveTurnRow: %v", err)
	}

	if row.Turn != 1 || row.Width != 60 || row.Height != 40 || row.MyPlayerID != 0 {
		t.Fatalf("header=%+v", row)
	}
	if len(row.Players) != 2 || len(row.Players[0].Ships) != 1 || len(row.Players[1].Ships) != 1 {
		t.Fatalf("players=%+v", row.Players)
	}
	ship := row.Players[0].Ships[0]
	if ship.ID != 3 || ship.X != 10.5 || ship.DockingStatus != int32(hlt.Docked) || ship.DockedPlanet != 9 {
		t.Fatalf("ship=%+v", ship)
	}
	if len(row.Planets) != 1 || row.Planets[0].Owner != 0 || len(row.Planets[0].DockedShips) != 1 {
		t.Fatalf("planets=%+v", row.Planets)
	}

	tokens, err := DecodeSnapshot(row.SnapshotFormat, row.Snapshot)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(tokens) != len(raw) || tokens[len(tokens)-1] != "extra" {
		t.Fatalf("tokens=%v want %v", tokens, raw)
	}

	if _, err := NewArchiveTurnRow("", "test", m, nil); err == nil {
		t.Fatalf("empty game id accepted")
	}
}

func TestDecodeSnapshot_RejectsUnknownFormat(t *testing.T) {
	blob, err := EncodeSnapshot([]string{"1", "0", "0", "0"})
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	if _, err := DecodeSnapshot("json", blob); err == nil {
		t.Fatalf("unknown format accepted")
	}
	if _, err := DecodeSnapshot(SnapshotFormat, []byte{0xc1}); err == nil {
		t.Fatalf("garbage blob accepted")
	}
}

func TestArchiveParquet_ReplaysIntoSameMap(t *testing.T) {
	m, raw := parsedMap(t)
	row, err := NewArchiveTurnRow("g1", "test", m, raw)
	if err != nil {
		t.Fatalf("NewArchiveTurnRow: %v", err)
	}

	path := writeBatch(t, t.TempDir(), row)

	rows, err := ReadArchiveParquet(path)
	if err != nil {
		t.Fatalf("ReadArchiveParquet: %v", err)
	}
	if len(rows) != 1 || rows[0].GameID != "g1" {
		t.Fatalf("rows=%+v", rows)
	}

	// The stored snapshot rebuilds an identical map.
	tokens, err := DecodeSnapshot(rows[0].SnapshotFormat, rows[0].Snapshot)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	replayed, err := hlt.NewMap(int(rows[0].Width), int(rows[0].Height), hlt.PlayerID(rows[0].MyPlayerID), hlt.Options{})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	if _, err := replayed.Update(hlt.NewTokens(tokens)); err != nil {
		t.Fatalf("Update from archive: %v", err)
	}
	again, err := NewArchiveTurnRow("g1", "test", replayed, tokens)
	if err != nil {
		t.Fatalf("NewArchiveTurnRow: %v", err)
	}
	if len(again.Planets) != len(rows[0].Planets) || again.Planets[0].Radius != rows[0].Planets[0].Radius {
		t.Fatalf("replayed planets=%+v stored=%+v", again.Planets, rows[0].Planets)
	}
}

func TestBatchWriter(t *testing.T) {
	m, raw := parsedMap(t)
	dir := t.TempDir()

	w, err := NewBatchWriter(dir)
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}
	var rows []ArchiveTurnRow
	for _, id := range []string{"a", "a", "b"} {
		row, err := NewArchiveTurnRow(id, "test", m, raw)
		if err != nil {
			t.Fatalf("NewArchiveTurnRow: %v", err)
		}
		rows = append(rows, row)
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.Rows() != 3 || w.Games() != 2 {
		t.Fatalf("rows=%d games=%d want 3 and 2", w.Rows(), w.Games())
	}

	out, n, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if n != 3 || filepath.Dir(out) != w.outDir {
		t.Fatalf("Finalize out=%s rows=%d", out, n)
	}
	got, err := ReadArchiveParquet(out)
	if err != nil {
		t.Fatalf("ReadArchiveParquet: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d rows want 3", len(got))
	}

	if err := w.Write(rows); err == nil {
		t.Fatalf("Write after Finalize succeeded")
	}
}

func TestBatchWriter_EmptyFinalizeRemovesTemp(t *testing.T) {
	w, err := NewBatchWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}
	out, n, err := w.Finalize()
	if err != nil || out != "" || n != 0 {
		t.Fatalf("Finalize=%q,%d,%v want empty", out, n, err)
	}
	if _, err := os.Stat(w.tmpPath); !os.IsNotExist(err) {
		t.Fatalf("temp file still present: %v", err)
	}
}

func TestGameLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "archived.log")
	l, err := OpenGameLog(path)
	if err != nil {
		t.Fatalf("OpenGameLog: %v", err)
	}
	if err := l.Add("g1", "g2", "g1", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add("g2"); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if l.Count() != 2 || !l.Has("g1") || l.Has("g3") {
		t.Fatalf("count=%d", l.Count())
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Add("g3"); err == nil {
		t.Fatalf("Add after Close succeeded")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "g1\ng2\n" {
		t.Fatalf("log contents=%q", b)
	}

	reopened, err := OpenGameLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Count() != 2 || !reopened.Has("g2") {
		t.Fatalf("reopened count=%d", reopened.Count())
	}
}

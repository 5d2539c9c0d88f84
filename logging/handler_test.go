package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestJSONLineHandler_WritesOneObjectPerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONLineHandler(&buf, &Options{Level: slog.LevelDebug}))

	logger.Debug("turn updated", "turn", 3, "planets", 12)
	logger.Info("objects between", "objects", 2, "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("lines=%d want 2:\n%s", len(lines), buf.String())
	}
	if lines[0]["msg"] != "turn updated" || lines[0]["level"] != "DEBUG" {
		t.Fatalf("first record=%v", lines[0])
	}
	if lines[0]["turn"] != float64(3) || lines[0]["planets"] != float64(12) {
		t.Fatalf("first record attrs=%v", lines[0])
	}
	if lines[1]["err"] != "boom" {
		t.Fatalf("error attr=%v want boom", lines[1]["err"])
	}
}

func TestJSONLineHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONLineHandler(&buf, nil))

	logger.Debug("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("records=%v want only the warning", lines)
	}
}

func TestJSONLineHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONLineHandler(&buf, nil)).
		With("turn", 7).
		WithGroup("query").
		With("kind", "pathable")

	logger.Info("done", "blocked", true, slog.Group("start", "x", 1.5, "y", 2))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines=%d want 1", len(lines))
	}
	rec := lines[0]
	if rec["turn"] != float64(7) {
		t.Fatalf("turn=%v want 7 at the root", rec["turn"])
	}
	q, ok := rec["query"].(map[string]any)
	if !ok {
		t.Fatalf("query group missing: %v", rec)
	}
	if q["kind"] != "pathable" || q["blocked"] != true {
		t.Fatalf("query group=%v", q)
	}
	start, ok := q["start"].(map[string]any)
	if !ok || start["x"] != 1.5 || start["y"] != float64(2) {
		t.Fatalf("start group=%v", q["start"])
	}
}

func TestJSONLineHandler_Indent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONLineHandler(&buf, &Options{Indent: true}))
	logger.Info("pretty", "a", 1)

	if !strings.Contains(buf.String(), "\n  \"a\": 1") {
		t.Fatalf("output not indented:\n%s", buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("indented output is not JSON: %v", err)
	}
}

func TestOpenBotLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, f, err := OpenBotLog(dir, 2, "my bot/v1", slog.LevelDebug)
	if err != nil {
		t.Fatalf("OpenBotLog: %v", err)
	}
	logger.Debug("--- new turn ---", "turn", 1)
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, "2_my_bot_v1.log")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, b)
	}
	if rec["player"] != float64(2) || rec["bot"] != "my bot/v1" || rec["turn"] != float64(1) {
		t.Fatalf("record=%v", rec)
	}

	if _, _, err := OpenBotLog(dir, 0, "", slog.LevelInfo); err == nil {
		t.Fatalf("OpenBotLog with empty name succeeded")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

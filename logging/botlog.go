package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// OpenBotLog creates <dir>/<playerID>_<name>.log and returns a logger writing
// JSON lines to it. The caller closes the returned file when the game ends.
func OpenBotLog(dir string, playerID int, name string, level slog.Leveler) (*slog.Logger, *os.File, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("bot name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.log", playerID, sanitizeName(name)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open bot log: %w", err)
	}

	h := NewJSONLineHandler(f, &Options{Level: level})
	logger := slog.New(h).With("player", playerID, "bot", name)
	return logger, f, nil
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

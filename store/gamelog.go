package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// GameLog remembers which games have already been archived. It is an
// append-only file of one game id per line, loaded into memory on open.
// A torn final line after a crash is simply ignored on the next open.
type GameLog struct {
	mu    sync.RWMutex
	file  *os.File
	games map[string]struct{}
}

func OpenGameLog(path string) (*GameLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	games := make(map[string]struct{})
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if id := strings.TrimSpace(scanner.Text()); id != "" {
				games[id] = struct{}{}
			}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &GameLog{file: file, games: games}, nil
}

func (l *GameLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *GameLog) Has(gameID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.games[gameID]
	return ok
}

func (l *GameLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.games)
}

// Add appends the ids not yet recorded and syncs once.
func (l *GameLog) Add(gameIDs ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}

	var b strings.Builder
	fresh := make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		if id == "" {
			continue
		}
		if _, ok := l.games[id]; ok {
			continue
		}
		if _, ok := fresh[id]; ok {
			continue
		}
		b.WriteString(id)
		b.WriteByte('\n')
		fresh[id] = struct{}{}
	}
	if len(fresh) == 0 {
		return nil
	}

	if _, err := l.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	for id := range fresh {
		l.games[id] = struct{}{}
	}
	return nil
}

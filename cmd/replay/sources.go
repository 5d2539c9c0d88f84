package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brensch/halite/discovery"
	"github.com/brensch/halite/feed"
	"github.com/brensch/halite/replay"
)

// session is a replayable game that has not been opened yet. gameID is empty
// when it is only known after opening (live feeds).
type session struct {
	name   string
	gameID string
	open   func(ctx context.Context) (replay.Source, error)
}

func gameIDFromName(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// fileSessions lists a single session file, or every *.hlt file in a directory.
func fileSessions(in string) ([]session, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}

	paths := []string{in}
	if info.IsDir() {
		paths, err = filepath.Glob(filepath.Join(in, "*.hlt"))
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)
	}

	sessions := make([]session, 0, len(paths))
	for _, p := range paths {
		gameID := gameIDFromName(filepath.ToSlash(p))
		sessions = append(sessions, session{
			name:   p,
			gameID: gameID,
			open: func(context.Context) (replay.Source, error) {
				f, err := os.Open(p)
				if err != nil {
					return nil, err
				}
				r, err := replay.NewReader(f, gameID)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("%s: %w", p, err)
				}
				return r, nil
			},
		})
	}
	return sessions, nil
}

func feedSession(wsURL string, logger *slog.Logger) session {
	return session{
		name: wsURL,
		open: func(ctx context.Context) (replay.Source, error) {
			cfg := feed.DefaultConfig(wsURL)
			cfg.Logger = logger
			return feed.Dial(ctx, cfg)
		},
	}
}

// discoveredSessions crawls the index pages and returns one session per new link.
func discoveredSessions(ctx context.Context, indexURLs []string, logger *slog.Logger) ([]session, error) {
	w, err := discovery.NewWorker(discovery.DefaultConfig(indexURLs...), nil, logger)
	if err != nil {
		return nil, err
	}
	links, err := w.Discover(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]session, 0, len(links))
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		gameID := gameIDFromName(u.Path)
		sessions = append(sessions, session{
			name:   link,
			gameID: gameID,
			open: func(ctx context.Context) (replay.Source, error) {
				body, err := w.Fetch(ctx, link)
				if err != nil {
					return nil, err
				}
				r, err := replay.NewReader(body, gameID)
				if err != nil {
					body.Close()
					return nil, fmt.Errorf("%s: %w", link, err)
				}
				return r, nil
			},
		})
	}
	return sessions, nil
}

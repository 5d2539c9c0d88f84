package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/brensch/halite/hlt"
	"github.com/brensch/halite/logging"
	"github.com/brensch/halite/store"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	loadDotEnv()

	in := flag.String("in", getEnvOrDefault("IN", ""), "Recorded session file, or a directory of *.hlt files")
	wsURL := flag.String("ws", getEnvOrDefault("FEED_URL", ""), "Websocket URL of a live session feed")
	index := flag.String("index", getEnvOrDefault("INDEX_URLS", ""), "Comma-separated index pages to discover recorded sessions on")
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/turns"), "Directory to write batch .parquet files")
	logPath := flag.String("log-path", getEnvOrDefault("ARCHIVED_LOG", "data/archived_games.log"), "Append-only log of game IDs already archived")
	flushGames := flag.Int("flush-games", getEnvIntOrDefault("FLUSH_GAMES", 100), "Flush when buffered games reaches this count")
	flushEvery := flag.Duration("flush-every", getEnvDurationOrDefault("FLUSH_EVERY", 10*time.Minute), "Flush at this interval regardless of buffered count")
	prunePlanets := flag.Bool("prune-planets", getEnvBoolOrDefault("PRUNE_PLANETS", false), "Drop planets missing from a newer snapshot")
	exactApproach := flag.Bool("exact-approach", getEnvBoolOrDefault("EXACT_APPROACH", false), "Do not truncate closest approach points")
	useTUI := flag.Bool("tui", getEnvBoolOrDefault("TUI", false), "Show a live stats monitor instead of logging to stderr")
	seedLog := flag.Bool("seed-log", getEnvBoolOrDefault("SEED_LOG", true), "Add games already in out-dir batches to the archived log on startup")
	logLevel := flag.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	if *in == "" && *wsURL == "" && *index == "" {
		log.Fatalf("Nothing to replay: set -in, -ws or -index")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	// The monitor owns the terminal, so logs go to a file next to the batches.
	var logOut io.Writer = os.Stderr
	if *useTUI {
		f, err := os.OpenFile(filepath.Join(*outDir, "replay.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
		log.SetOutput(f)
	}
	logger := slog.New(logging.NewJSONLineHandler(logOut, &logging.Options{Level: logging.ParseLevel(*logLevel)}))
	slog.SetDefault(logger)

	games, err := store.OpenGameLog(*logPath)
	if err != nil {
		log.Fatalf("Failed to open archived log: %v", err)
	}
	defer games.Close()

	log.Printf("Starting Halite replay archiver")
	log.Printf("  In: %s", *in)
	log.Printf("  Feed: %s", *wsURL)
	log.Printf("  Index: %s", *index)
	log.Printf("  Out Dir: %s", *outDir)
	log.Printf("  Archived Log: %s (%d already)", *logPath, games.Count())
	log.Printf("  Flush Games: %d", *flushGames)
	log.Printf("  Flush Every: %s", *flushEvery)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	if *seedLog {
		added, err := store.SeedGameLog(ctx, games, *outDir)
		if err != nil {
			log.Printf("Failed to seed archived log from %s: %v", *outDir, err)
		} else if added > 0 {
			log.Printf("Seeded archived log with %d games found in %s", added, *outDir)
		}
	}

	sessions, err := collectSessions(ctx, *in, *wsURL, *index, logger)
	if err != nil {
		log.Fatalf("Failed to collect sessions: %v", err)
	}
	log.Printf("Found %d sessions", len(sessions))

	opts := hlt.Options{
		PruneMissingPlanets: *prunePlanets,
		ExactApproach:       *exactApproach,
		Logger:              logger,
	}
	stats := &counters{}
	a, err := newArchiver(*outDir, games, *flushGames, *flushEvery, opts, stats, logger)
	if err != nil {
		log.Fatalf("Failed to create batch writer: %v", err)
	}

	if !*useTUI {
		err = runSessions(ctx, a, sessions, nil)
	} else {
		done := make(chan sessionDone, 16)
		p := tea.NewProgram(initialModel(stats, done, cancel), tea.WithAltScreen())
		errc := make(chan error, 1)
		go func() {
			errc <- runSessions(ctx, a, sessions, done)
			p.Send(tea.Quit())
		}()
		if _, err := p.Run(); err != nil {
			log.Printf("Monitor exited: %v", err)
		}
		cancel()
		err = <-errc
	}

	if cerr := a.close(); cerr != nil {
		log.Printf("Final flush failed: %v", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Replay failed: %v", err)
	}
	log.Printf("Done: games=%d skipped=%d failed=%d turns=%d rows=%d batches=%d",
		stats.Games.Load(), stats.Skipped.Load(), stats.Failed.Load(),
		stats.Turns.Load(), stats.Rows.Load(), stats.Batches.Load())
}

func collectSessions(ctx context.Context, in, wsURL, index string, logger *slog.Logger) ([]session, error) {
	var sessions []session
	if in != "" {
		files, err := fileSessions(in)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, files...)
	}
	if index != "" {
		var urls []string
		for _, u := range strings.Split(index, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		found, err := discoveredSessions(ctx, urls, logger)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, found...)
	}
	if wsURL != "" {
		sessions = append(sessions, feedSession(wsURL, logger))
	}
	return sessions, nil
}

// runSessions replays sessions one at a time. done, when set, receives a
// report per session and must be drained by the caller.
func runSessions(ctx context.Context, a *archiver, sessions []session, done chan<- sessionDone) error {
	report := func(name string, turns int64, err error) {
		if done == nil {
			return
		}
		select {
		case done <- sessionDone{Name: name, Turns: turns, Err: err}:
		case <-ctx.Done():
		}
	}

	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.gameID != "" && a.games.Has(s.gameID) {
			a.stats.Skipped.Add(1)
			continue
		}

		src, err := s.open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.stats.Failed.Add(1)
			a.log.Warn("open session failed", "source", s.name, "err", err)
			report(s.name, 0, err)
			continue
		}

		before := a.stats.Turns.Load()
		err = a.process(ctx, src, s.name)
		if cerr := src.Close(); cerr != nil {
			a.log.Debug("close session", "source", s.name, "err", cerr)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		report(s.name, a.stats.Turns.Load()-before, nil)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/brensch/halite/hlt"
	"github.com/brensch/halite/replay"
	"github.com/brensch/halite/store"
)

// archiver replays sessions and writes every turn to Parquet batches.
type archiver struct {
	outDir     string
	flushGames int
	flushEvery time.Duration
	opts       hlt.Options

	games     *store.GameLog
	batch     *store.BatchWriter
	pending   []string
	lastFlush time.Time

	stats *counters
	log   *slog.Logger
}

func newArchiver(outDir string, games *store.GameLog, flushGames int, flushEvery time.Duration, opts hlt.Options, stats *counters, logger *slog.Logger) (*archiver, error) {
	if flushGames <= 0 {
		flushGames = 100
	}
	if flushEvery <= 0 {
		flushEvery = 10 * time.Minute
	}
	batch, err := store.NewBatchWriter(outDir)
	if err != nil {
		return nil, err
	}
	return &archiver{
		outDir:     outDir,
		flushGames: flushGames,
		flushEvery: flushEvery,
		opts:       opts,
		games:      games,
		batch:      batch,
		lastFlush:  time.Now(),
		stats:      stats,
		log:        logger,
	}, nil
}

// process replays one session. A session that fails to parse is counted and
// dropped; only write and context errors are returned.
func (a *archiver) process(ctx context.Context, src replay.Source, sourceName string) error {
	h := src.Header()
	if a.games.Has(h.GameID) || slices.Contains(a.pending, h.GameID) {
		a.stats.Skipped.Add(1)
		return nil
	}

	var rows []store.ArchiveTurnRow
	_, err := replay.Run(ctx, src, a.opts, func(m *hlt.Map, raw []string) error {
		row, err := store.NewArchiveTurnRow(h.GameID, sourceName, m, raw)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		a.stats.addTurn(analyzeTurn(m))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.stats.Failed.Add(1)
		a.log.Warn("session dropped", "game", h.GameID, "source", sourceName, "turns", len(rows), "err", err)
		return nil
	}
	if len(rows) == 0 {
		a.stats.Failed.Add(1)
		a.log.Warn("session has no turns", "game", h.GameID, "source", sourceName)
		return nil
	}

	if err := a.batch.Write(rows); err != nil {
		return fmt.Errorf("archive %s: %w", h.GameID, err)
	}
	a.pending = append(a.pending, h.GameID)
	a.stats.Games.Add(1)
	a.stats.Rows.Add(int64(len(rows)))
	a.log.Debug("session archived", "game", h.GameID, "turns", len(rows))

	switch {
	case len(a.pending) >= a.flushGames:
		return a.flush("count")
	case time.Since(a.lastFlush) >= a.flushEvery:
		return a.flush("interval")
	}
	return nil
}

func (a *archiver) flush(reason string) error {
	if len(a.pending) == 0 {
		return nil
	}

	out, rows, err := a.batch.Finalize()
	if err != nil {
		return fmt.Errorf("flush (%s): %w", reason, err)
	}
	// The batch is on disk even if the log append fails; the games would
	// just be archived again on the next run.
	if err := a.games.Add(a.pending...); err != nil {
		a.log.Warn("game log append failed", "reason", reason, "err", err)
	}
	a.stats.Batches.Add(1)
	a.log.Info("flushed batch", "reason", reason, "games", len(a.pending), "rows", rows, "path", out)

	a.pending = a.pending[:0]
	a.lastFlush = time.Now()
	a.batch, err = store.NewBatchWriter(a.outDir)
	return err
}

// close flushes what is buffered and removes the unused temp file.
func (a *archiver) close() error {
	if err := a.flush("final"); err != nil {
		return err
	}
	if a.batch == nil {
		return nil
	}
	_, _, err := a.batch.Finalize()
	return err
}

// Package replay feeds recorded or streamed sessions through an hlt.Map.
//
// A recorded session is plain text: the local player id on the first line,
// "width height" on the second, then one turn snapshot per line.
package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/brensch/halite/hlt"
	"github.com/google/uuid"
)

// Header is what a bot learns before the first turn.
type Header struct {
	GameID   string
	PlayerID hlt.PlayerID
	Width    int
	Height   int
}

// Source yields one turn snapshot at a time. Next returns io.EOF after the
// last turn.
type Source interface {
	Header() Header
	Next() ([]string, error)
	Close() error
}

// maxLine bounds a single snapshot line; large maps with many ships run to
// a few hundred KB.
const maxLine = 4 << 20

type Reader struct {
	rc     io.Closer
	sc     *bufio.Scanner
	header Header
	line   int
}

// NewReader reads the session header from r. If gameID is empty a random one
// is assigned. r is closed by Close when it implements io.Closer.
func NewReader(r io.Reader, gameID string) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	rd := &Reader{sc: sc}
	if c, ok := r.(io.Closer); ok {
		rd.rc = c
	}

	idLine, err := rd.nextLine()
	if err != nil {
		return nil, fmt.Errorf("read player id: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idLine), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parse player id %q: %w", idLine, err)
	}

	sizeLine, err := rd.nextLine()
	if err != nil {
		return nil, fmt.Errorf("read map size: %w", err)
	}
	size := strings.Fields(sizeLine)
	if len(size) != 2 {
		return nil, fmt.Errorf("map size line %q: want \"width height\"", sizeLine)
	}
	w, err := strconv.Atoi(size[0])
	if err != nil {
		return nil, fmt.Errorf("parse width: %w", err)
	}
	h, err := strconv.Atoi(size[1])
	if err != nil {
		return nil, fmt.Errorf("parse height: %w", err)
	}

	if gameID == "" {
		gameID = uuid.NewString()
	}
	rd.header = Header{GameID: gameID, PlayerID: hlt.PlayerID(id), Width: w, Height: h}
	return rd, nil
}

func (r *Reader) Header() Header { return r.header }

// nextLine skips blank lines.
func (r *Reader) nextLine() (string, error) {
	for r.sc.Scan() {
		r.line++
		if line := r.sc.Text(); strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return "", fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return "", io.EOF
}

func (r *Reader) Next() ([]string, error) {
	line, err := r.nextLine()
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// TurnFunc is called after every successful update. raw is the snapshot the
// map was updated from.
type TurnFunc func(m *hlt.Map, raw []string) error

// Run builds a map from src's header and applies every turn until the source
// is exhausted, the context is cancelled, or fn fails. A malformed snapshot
// aborts the session.
func Run(ctx context.Context, src Source, opts hlt.Options, fn TurnFunc) (*hlt.Map, error) {
	h := src.Header()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger.With("game", h.GameID)

	m, err := hlt.NewMap(h.Width, h.Height, h.PlayerID, opts)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			return m, fmt.Errorf("turn %d: %w", m.Turn()+1, err)
		}

		if _, err := m.Update(hlt.NewTokens(raw)); err != nil {
			return m, fmt.Errorf("turn %d: %w", m.Turn()+1, err)
		}
		if fn != nil {
			if err := fn(m, raw); err != nil {
				return m, err
			}
		}
	}
}

// Package feed streams a live session from a websocket endpoint.
//
// The server sends JSON events:
//
//	{"type":"init","data":{"game_id":"...","player_id":0,"width":240,"height":160}}
//	{"type":"frame","data":{"turn":1,"snapshot":"2 0 3 ..."}}
//	{"type":"end"}
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/brensch/halite/hlt"
	"github.com/brensch/halite/replay"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Config struct {
	URL            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *slog.Logger
}

func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Event is one message from the stream.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type InitData struct {
	GameID   string `json:"game_id"`
	PlayerID int    `json:"player_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type FrameData struct {
	Turn     int    `json:"turn"`
	Snapshot string `json:"snapshot"`
}

// Conn is an open session stream. It implements replay.Source.
type Conn struct {
	conn   *websocket.Conn
	cfg    Config
	log    *slog.Logger
	header replay.Header
	done   bool
}

var _ replay.Source = (*Conn)(nil)

// Dial connects and waits for the init event.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed url is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Conn{conn: ws, cfg: cfg, log: logger}
	for {
		ev, err := c.read()
		if err != nil {
			ws.Close()
			return nil, fmt.Errorf("waiting for init: %w", err)
		}
		if ev.Type != "init" {
			logger.Warn("skipping event before init", "type", ev.Type)
			continue
		}

		var info InitData
		if err := json.Unmarshal(ev.Data, &info); err != nil {
			ws.Close()
			return nil, fmt.Errorf("parse init: %w", err)
		}
		if info.GameID == "" {
			info.GameID = uuid.NewString()
		}
		c.header = replay.Header{
			GameID:   info.GameID,
			PlayerID: hlt.PlayerID(info.PlayerID),
			Width:    info.Width,
			Height:   info.Height,
		}
		return c, nil
	}
}

func (c *Conn) Header() replay.Header { return c.header }

// Next returns the next frame's snapshot tokens, or io.EOF once the stream
// has ended or the server closed normally.
func (c *Conn) Next() ([]string, error) {
	for !c.done {
		ev, err := c.read()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.done = true
				return nil, io.EOF
			}
			return nil, err
		}

		switch ev.Type {
		case "frame":
			var f FrameData
			if err := json.Unmarshal(ev.Data, &f); err != nil {
				return nil, fmt.Errorf("parse frame: %w", err)
			}
			return strings.Fields(f.Snapshot), nil
		case "end":
			c.done = true
		default:
			c.log.Debug("ignoring event", "type", ev.Type)
		}
	}
	return nil, io.EOF
}

func (c *Conn) read() (Event, error) {
	if c.cfg.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, errors.New("event without type")
	}
	return ev, nil
}

// Close sends a close frame and releases the connection.
func (c *Conn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

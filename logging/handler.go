// Package logging provides the slog handlers used by bots and tools.
//
// A bot's stdout is the engine channel, so bot logs go to a per-bot file.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures a JSONLineHandler.
type Options struct {
	Level     slog.Leveler
	AddSource bool
	// Indent writes each record as indented JSON. Easier to read in a
	// terminal, worse for grep.
	Indent bool
}

// JSONLineHandler writes one JSON object per record. Attributes under a
// group nest as objects, and a "turn" attribute added with WithAttrs is kept
// on every record so a bot log can be split per turn.
type JSONLineHandler struct {
	w    io.Writer
	mu   *sync.Mutex
	opts Options

	attrs  []slog.Attr
	groups []string
}

func NewJSONLineHandler(w io.Writer, opts *Options) *JSONLineHandler {
	h := &JSONLineHandler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *JSONLineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *JSONLineHandler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, 4+len(h.attrs)+r.NumAttrs())

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message
	if h.opts.AddSource {
		if src := sourceFromPC(r.PC); src != "" {
			payload["source"] = src
		}
	}

	// Handler attrs were recorded under the groups open at the time; record
	// attrs go under every open group.
	for _, a := range h.attrs {
		addAttrToMap(payload, a)
	}
	dst := payload
	for _, g := range h.groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttrToMap(dst, a)
		return true
	})

	var (
		b   []byte
		err error
	)
	if h.opts.Indent {
		b, err = json.MarshalIndent(payload, "", "  ")
	} else {
		b, err = json.Marshal(payload)
	}
	if err != nil {
		// Unencodable attribute; keep the message rather than drop the record.
		b = []byte(`{"time":` + strconv.Quote(payload["time"].(string)) +
			`,"level":` + strconv.Quote(r.Level.String()) +
			`,"msg":` + strconv.Quote(r.Message) +
			`,"log_error":` + strconv.Quote(err.Error()) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *JSONLineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		// Wrap in the open groups so the attr lands where it was added.
		for i := len(h.groups) - 1; i >= 0; i-- {
			a = slog.Attr{Key: h.groups[i], Value: slog.GroupValue(a)}
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *JSONLineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttrToMap(dst map[string]any, attr slog.Attr) {
	v := attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if v.Kind() == slog.KindGroup {
		group := v.Group()
		if len(group) == 0 {
			return
		}
		target := dst
		if attr.Key != "" {
			child, ok := dst[attr.Key].(map[string]any)
			if !ok {
				child = map[string]any{}
				dst[attr.Key] = child
			}
			target = child
		}
		for _, ga := range group {
			addAttrToMap(target, ga)
		}
		return
	}

	dst[attr.Key] = valueToAny(v)
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}

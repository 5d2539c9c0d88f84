package discovery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/results/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>
			<a href="game-1.hlt">one</a>
			<a href="/replays/game-2.hlt#turn-4">two</a>
			<a href="game-1.hlt">one again</a>
			<a href="notes.txt">notes</a>
			<a>no href</a>
		</body></html>`)
	})
	mux.HandleFunc("/other/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<a href="/replays/game-2.hlt">dup</a><a href="game-3.hlt">three</a>`)
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/replays/game-2.hlt", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		io.WriteString(w, "0\n10 10\n1 0 0 0\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover_ResolvesAndDedupes(t *testing.T) {
	srv := newSite(t)
	cfg := DefaultConfig(srv.URL+"/results/", srv.URL+"/broken/", srv.URL+"/other/")
	cfg.RequestDelay = 0

	w, err := NewWorker(cfg, map[string]bool{srv.URL + "/other/game-3.hlt": true}, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	got, err := w.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{srv.URL + "/results/game-1.hlt", srv.URL + "/replays/game-2.hlt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Discover=%v want %v", got, want)
	}

	again, err := w.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second Discover=%v want nothing new", again)
	}
}

func TestDiscover_MaxSessions(t *testing.T) {
	srv := newSite(t)
	cfg := DefaultConfig(srv.URL+"/results/", srv.URL+"/other/")
	cfg.RequestDelay = 0
	cfg.MaxSessions = 1

	w, err := NewWorker(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	got, err := w.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Discover=%v want 1 link", got)
	}
}

func TestFetch(t *testing.T) {
	srv := newSite(t)
	w, err := NewWorker(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	body, err := w.Fetch(context.Background(), srv.URL+"/replays/game-2.hlt")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "0\n10 10\n") {
		t.Fatalf("body=%q", b)
	}

	if _, err := w.Fetch(context.Background(), srv.URL+"/missing.hlt"); err == nil {
		t.Fatalf("Fetch of missing session succeeded")
	}
}

func TestNewWorker_BadPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinkPattern = "("
	if _, err := NewWorker(cfg, nil, nil); err == nil {
		t.Fatalf("NewWorker accepted invalid pattern")
	}
}

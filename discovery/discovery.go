// Package discovery finds recorded sessions linked from HTML index pages,
// such as a static file listing or a tournament results page.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "HaliteReplayArchiver/1.0"

type Config struct {
	IndexURLs    []string
	RequestDelay time.Duration // pause between index pages
	MaxSessions  int           // stop after this many new links (0 = unlimited)
	LinkPattern  string        // regexp matched against the resolved link; default `\.hlt$`
}

func DefaultConfig(indexURLs ...string) Config {
	return Config{
		IndexURLs:    indexURLs,
		RequestDelay: 500 * time.Millisecond,
		LinkPattern:  `\.hlt$`,
	}
}

type Worker struct {
	config  Config
	client  *http.Client
	log     *slog.Logger
	linkRe  *regexp.Regexp
	knownMu sync.RWMutex
	known   map[string]bool
}

// NewWorker builds a worker. known lists session URLs that should never be
// reported again; it may be nil.
func NewWorker(config Config, known map[string]bool, logger *slog.Logger) (*Worker, error) {
	pattern := config.LinkPattern
	if pattern == "" {
		pattern = `\.hlt$`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("link pattern: %w", err)
	}
	if known == nil {
		known = make(map[string]bool)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    logger,
		linkRe: re,
		known:  known,
	}, nil
}

// Discover crawls every index page and returns the new session URLs in page
// order. A failing page is logged and skipped.
func (w *Worker) Discover(ctx context.Context) ([]string, error) {
	var found []string

	for i, indexURL := range w.config.IndexURLs {
		if i > 0 && w.config.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return found, ctx.Err()
			case <-time.After(w.config.RequestDelay):
			}
		}

		links, err := w.pageLinks(ctx, indexURL)
		if err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			w.log.Warn("index page failed", "url", indexURL, "err", err)
			continue
		}

		fresh := 0
		for _, link := range links {
			if !w.markKnown(link) {
				continue
			}
			found = append(found, link)
			fresh++
			if w.config.MaxSessions > 0 && len(found) >= w.config.MaxSessions {
				w.log.Info("session limit reached", "limit", w.config.MaxSessions)
				return found, nil
			}
		}
		w.log.Info("index page crawled", "url", indexURL, "links", len(links), "new", fresh)
	}
	return found, nil
}

// markKnown records link and reports whether it was new.
func (w *Worker) markKnown(link string) bool {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	if w.known[link] {
		return false
	}
	w.known[link] = true
	return true
}

func (w *Worker) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

func (w *Worker) pageLinks(ctx context.Context, indexURL string) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, err
	}

	resp, err := w.get(ctx, indexURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		link := abs.String()
		if !w.linkRe.MatchString(link) || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links, nil
}

// Fetch opens a discovered session. The caller closes the body.
func (w *Worker) Fetch(ctx context.Context, sessionURL string) (io.ReadCloser, error) {
	resp, err := w.get(ctx, sessionURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sessionURL, err)
	}
	return resp.Body, nil
}

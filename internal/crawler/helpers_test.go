package crawler

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// fakePage is a canned response served by fakeSite.
type fakePage struct {
	status      int
	body        string
	location    string
	contentType string
	err         error
}

// fakeSite serves canned pages keyed by absolute URL without requiring a
// network, so tests can use real host names such as example.com.
// Unknown URLs answer 404.
type fakeSite struct {
	mu    sync.Mutex
	pages map[string]fakePage
	hits  map[string]int
	order []string
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages, hits: make(map[string]int)}
}

func (s *fakeSite) client() *http.Client {
	return &http.Client{Transport: roundTripFunc(s.roundTrip)}
}

func (s *fakeSite) roundTrip(r *http.Request) (*http.Response, error) {
	key := r.URL.String()

	s.mu.Lock()
	s.hits[key]++
	s.order = append(s.order, key)
	page, ok := s.pages[key]
	s.mu.Unlock()

	if !ok {
		page = fakePage{status: http.StatusNotFound}
	}
	if page.err != nil {
		return nil, page.err
	}

	header := http.Header{}
	if page.location != "" {
		header.Set("Location", page.location)
	}
	ct := page.contentType
	if ct == "" && page.body != "" {
		ct = "text/html; charset=utf-8"
	}
	if ct != "" {
		header.Set("Content-Type", ct)
	}

	return &http.Response{
		StatusCode: page.status,
		Status:     fmt.Sprintf("%d %s", page.status, http.StatusText(page.status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(page.body)),
		Request:    r,
	}, nil
}

func (s *fakeSite) hitCount(u string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[u]
}

func (s *fakeSite) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// anchors builds a minimal page linking to hrefs.
func anchors(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// testConfig returns a configuration without delays.
func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Delay = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

// fixedClock returns a clock frozen at a known instant.
func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

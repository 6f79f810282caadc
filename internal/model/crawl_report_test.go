package model

import (
	"testing"
	"time"
)

// TestCrawlReportHealthy tests the healthy flag.
func TestCrawlReportHealthy(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		failed []FailedPage
		broken []BrokenLink
		want   bool
	}{
		{
			name: "no problems is healthy",
			want: true,
		},
		{
			name:   "failed page is unhealthy",
			failed: []FailedPage{{URL: "http://a.test/x", Status: 404, Error: "Not Found", Timestamp: now}},
			want:   false,
		},
		{
			name:   "broken link is unhealthy",
			broken: []BrokenLink{{FoundOn: "http://a.test/", BrokenLink: "%zz", Error: "Invalid URI", Timestamp: now}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewCrawlReport("http://a.test", now, now, []string{"http://a.test"}, tt.failed, tt.broken)
			if got := r.Healthy(); got != tt.want {
				t.Errorf("expected healthy=%v, got %v", tt.want, got)
			}
			if got := r.Summary().Healthy; got != tt.want {
				t.Errorf("expected summary healthy=%v, got %v", tt.want, got)
			}
		})
	}
}

// TestCrawlReportSummary tests the derived counts.
func TestCrawlReportSummary(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(3 * time.Second)

	r := NewCrawlReport("http://a.test",
		started,
		completed,
		[]string{"http://a.test", "http://a.test/about", "http://a.test/contact"},
		[]FailedPage{{URL: "http://a.test/contact", Status: 404}},
		nil,
	)

	s := r.Summary()
	if s.PagesChecked != 3 {
		t.Errorf("expected 3 pages checked, got %d", s.PagesChecked)
	}
	if s.FailedPages != 1 {
		t.Errorf("expected 1 failed page, got %d", s.FailedPages)
	}
	if s.BrokenLinks != 0 {
		t.Errorf("expected 0 broken links, got %d", s.BrokenLinks)
	}
	if !s.Timestamp.Equal(completed) {
		t.Errorf("expected timestamp %v, got %v", completed, s.Timestamp)
	}
	if r.Duration() != 3*time.Second {
		t.Errorf("expected duration 3s, got %v", r.Duration())
	}
}

// TestNewCrawlReportCopiesCollections tests that the report is a snapshot.
func TestNewCrawlReportCopiesCollections(t *testing.T) {
	t.Parallel()

	visited := []string{"http://a.test"}
	r := NewCrawlReport("http://a.test", time.Now(), time.Now(), visited, nil, nil)

	visited[0] = "http://mutated.test"
	if r.VisitedURLs[0] != "http://a.test" {
		t.Errorf("report shares backing array with caller: %v", r.VisitedURLs)
	}
	if r.FailedPages == nil || r.BrokenLinks == nil {
		t.Error("expected empty, non-nil collections")
	}
	if !r.HasVisited("http://a.test") {
		t.Error("expected HasVisited to find base URL")
	}
}

func TestNewRunInfo(t *testing.T) {
	t.Parallel()

	completed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewCrawlReport("https://example.com", completed.Add(-time.Minute), completed,
		[]string{"https://example.com", "https://example.com/a"},
		[]FailedPage{{URL: "https://example.com/a", Status: 500}},
		nil)

	info := NewRunInfo(7, r)
	if info.ID != 7 || info.BaseURL != "https://example.com" {
		t.Errorf("unexpected identity %+v", info)
	}
	if info.PagesChecked != 2 || info.FailedPages != 1 || info.BrokenLinks != 0 || info.Healthy {
		t.Errorf("unexpected counts %+v", info)
	}
	if !info.CompletedAt.Equal(completed) {
		t.Errorf("expected CompletedAt %v, got %v", completed, info.CompletedAt)
	}
}

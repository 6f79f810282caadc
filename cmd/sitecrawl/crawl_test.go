package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/report"
)

// newTestSite serves a three-page site with one missing page and one
// unparseable href.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<a href="/about">About</a><a href="/missing">Gone</a>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<a href="/">Home</a><a href="http://[::1">bad</a>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newHealthySite(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<p>nothing to follow</p>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testCrawlConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BaseURL = baseURL
	cfg.Delay = 0
	cfg.HistoryDir = t.TempDir()
	return cfg
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()
	if cmd.Use != "crawl [base-url]" {
		t.Errorf("expected use 'crawl [base-url]', got %q", cmd.Use)
	}

	flags := []struct {
		name      string
		shorthand string
	}{
		{"config", "c"},
		{"concurrency", "n"},
		{"delay", "d"},
		{"timeout", "t"},
		{"external", "e"},
		{"user-agent", "u"},
		{"exclude", "x"},
		{"include", "i"},
		{"header", "H"},
		{"format", "f"},
		{"output", "o"},
		{"quiet", "q"},
		{"max-iterations", ""},
		{"max-body-size", ""},
		{"rps", ""},
		{"seed-file", ""},
		{"no-history", ""},
		{"fail-on-issues", ""},
		{"json-log", ""},
		{"json-copy", ""},
		{"list-urls", ""},
	}
	for _, f := range flags {
		flag := cmd.Flags().Lookup(f.name)
		if flag == nil {
			t.Errorf("expected %s flag", f.name)
			continue
		}
		if flag.Shorthand != f.shorthand {
			t.Errorf("%s shorthand = %q, want %q", f.name, flag.Shorthand, f.shorthand)
		}
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "crawl.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("flags override file, file overrides defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
base_url: https://from-file.example
max_concurrent: 3
delay_between_requests: 0.5
exclude_patterns: ['/private/']
headers:
  X-From-File: "1"
`)
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"--config", path,
			"--concurrency", "7",
			"--header", "X-Token: abc",
			"--format", "json",
			"--no-history",
		}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.BaseURL != "https://from-file.example" {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
		if cfg.MaxConcurrent != 7 {
			t.Errorf("MaxConcurrent = %d, want 7 from flag", cfg.MaxConcurrent)
		}
		if cfg.Delay != 500*time.Millisecond {
			t.Errorf("Delay = %v, want 500ms from file", cfg.Delay)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("Timeout = %v, want default", cfg.Timeout)
		}
		if len(cfg.ExcludePatterns) != 1 || cfg.ExcludePatterns[0] != "/private/" {
			t.Errorf("ExcludePatterns = %v", cfg.ExcludePatterns)
		}
		if cfg.Headers["X-From-File"] != "1" || cfg.Headers["X-Token"] != "abc" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
		if cfg.OutputFormat != "json" || cfg.SaveHistory {
			t.Errorf("OutputFormat = %q, SaveHistory = %v", cfg.OutputFormat, cfg.SaveHistory)
		}
	})

	t.Run("argument overrides base_url", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "base_url: https://from-file.example\n")
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://from-arg.example"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.BaseURL != "https://from-arg.example" {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, nil); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid header", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "max_concurrent: 1\n")
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", path, "--header", "no-colon"}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for malformed header")
		}
	})

	t.Run("delay and timeout in seconds", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "max_concurrent: 1\n")
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", path, "--delay", "0", "--timeout", "2.5", "--external"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Delay != 0 || cfg.Timeout != 2500*time.Millisecond || !cfg.FollowExternalLinks {
			t.Errorf("Delay = %v, Timeout = %v, FollowExternal = %v", cfg.Delay, cfg.Timeout, cfg.FollowExternalLinks)
		}
	})
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("console report and history", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testCrawlConfig(t, srv.URL)

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, log.Discard(), crawlOptions{stdout: &stdout, stderr: &stderr})
		if err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}

		output := stdout.String()
		for _, want := range []string{"CRAWL REPORT", "Pages checked: 3", "Failed pages:  1", "Broken links:  1", srv.URL + "/missing"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in report\n%s", want, output)
			}
		}
		if !strings.Contains(stderr.String(), "Crawling ") {
			t.Error("expected progress on stderr")
		}

		db, err := database.Open(cfg.HistoryDir, database.Options{})
		if err != nil {
			t.Fatalf("history database not created: %v", err)
		}
		defer db.Close()
		runs, err := db.ListRuns(context.Background(), srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || runs[0].Healthy || runs[0].PagesChecked != 3 {
			t.Errorf("runs = %+v", runs)
		}
	})

	t.Run("url list and json copy", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testCrawlConfig(t, srv.URL)
		cfg.SaveHistory = false
		copyPath := filepath.Join(t.TempDir(), "copy.json")

		var stdout, stderr bytes.Buffer
		opts := crawlOptions{quiet: true, listURLs: true, jsonCopy: copyPath, stdout: &stdout, stderr: &stderr}
		if err := runCrawl(context.Background(), cfg, log.Discard(), opts); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "  "+srv.URL+"/about\n") {
			t.Errorf("expected checked URLs in report\n%s", stdout.String())
		}
		if !strings.Contains(stderr.String(), "JSON copy saved to "+copyPath) {
			t.Errorf("expected JSON copy notice, got %q", stderr.String())
		}

		f, err := os.Open(copyPath)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		doc, err := report.ReadJSON(f)
		if err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if doc.Summary.PagesChecked != 3 || doc.Summary.FailedPages != 1 {
			t.Errorf("summary = %+v", doc.Summary)
		}
	})

	t.Run("json report to file without history", func(t *testing.T) {
		t.Parallel()

		srv := newHealthySite(t)
		cfg := testCrawlConfig(t, srv.URL)
		cfg.OutputFormat = "json"
		cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")
		cfg.SaveHistory = false

		var stdout, stderr bytes.Buffer
		if err := runCrawl(context.Background(), cfg, log.Discard(), crawlOptions{quiet: true, stdout: &stdout, stderr: &stderr}); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}
		if stdout.Len() != 0 {
			t.Errorf("stdout should be empty, got %q", stdout.String())
		}

		f, err := os.Open(cfg.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		doc, err := report.ReadJSON(f)
		if err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if !doc.Summary.Healthy || doc.Summary.PagesChecked != 1 {
			t.Errorf("summary = %+v", doc.Summary)
		}

		if _, err := database.Open(cfg.HistoryDir, database.Options{}); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("history should not be written, Open error = %v", err)
		}
	})

	t.Run("fail on issues", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testCrawlConfig(t, srv.URL)

		err := runCrawl(context.Background(), cfg, log.Discard(),
			crawlOptions{quiet: true, failOnIssues: true, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
		if !errors.Is(err, ErrIssuesFound) {
			t.Errorf("error = %v, want ErrIssuesFound", err)
		}
	})

	t.Run("healthy site passes fail on issues", func(t *testing.T) {
		t.Parallel()

		srv := newHealthySite(t)
		cfg := testCrawlConfig(t, srv.URL)

		err := runCrawl(context.Background(), cfg, log.Discard(),
			crawlOptions{quiet: true, failOnIssues: true, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown format is reported after crawling", func(t *testing.T) {
		t.Parallel()

		srv := newHealthySite(t)
		cfg := testCrawlConfig(t, srv.URL)
		cfg.OutputFormat = "xml"

		err := runCrawl(context.Background(), cfg, log.Discard(),
			crawlOptions{quiet: true, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
		if !errors.Is(err, report.ErrUnknownFormat) {
			t.Errorf("error = %v, want ErrUnknownFormat", err)
		}

		db, err := database.Open(cfg.HistoryDir, database.Options{})
		if err != nil {
			t.Fatalf("crawl should still be saved: %v", err)
		}
		defer db.Close()
	})

	t.Run("missing base URL", func(t *testing.T) {
		t.Parallel()

		cfg := testCrawlConfig(t, "")
		err := runCrawl(context.Background(), cfg, log.Discard(),
			crawlOptions{quiet: true, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
		if !errors.Is(err, crawler.ErrMissingBaseURL) {
			t.Errorf("error = %v, want ErrMissingBaseURL", err)
		}
	})

	t.Run("cancelled crawl reports partial results", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testCrawlConfig(t, srv.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var stdout bytes.Buffer
		err := runCrawl(ctx, cfg, log.Discard(), crawlOptions{quiet: true, stdout: &stdout, stderr: &bytes.Buffer{}})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if !strings.Contains(stdout.String(), "CRAWL REPORT") {
			t.Error("expected partial report")
		}
		if _, err := database.Open(cfg.HistoryDir, database.Options{}); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("partial crawl should not be saved, Open error = %v", err)
		}
	})
}

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := progressPrinter(&buf)
	for i := 1; i <= 12; i++ {
		p(crawler.Progress{PagesChecked: i})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d progress lines, want 2\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "checked 5 pages") || !strings.Contains(lines[1], "checked 10 pages") {
		t.Errorf("unexpected progress lines: %q", lines)
	}
}

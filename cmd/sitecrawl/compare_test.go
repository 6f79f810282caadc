package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
)

// saveRuns stores one crawl of site per entry in failures, oldest first,
// each failing the listed paths. It returns the directory and the IDs.
func saveRuns(t *testing.T, site string, start time.Time, failures ...[]string) (string, []int64) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ids := make([]int64, 0, len(failures))
	for i, paths := range failures {
		completed := start.Add(time.Duration(i) * 24 * time.Hour)
		var failed []model.FailedPage
		for _, p := range paths {
			failed = append(failed, model.FailedPage{URL: site + p, Status: 404, Error: "Not Found", Timestamp: completed})
		}
		id, err := db.SaveReport(context.Background(),
			model.NewCrawlReport(site, completed.Add(-time.Minute), completed, []string{site}, failed, nil))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return dir, ids
}

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()
	for _, name := range []string{"with-id", "since", "file", "json", "markdown"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestRunCompare(t *testing.T) {
	t.Parallel()

	const site = "https://example.com"
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("latest two crawls", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start, []string{"/a"}, []string{"/a", "/b"}, []string{"/b", "/c"})
		var buf bytes.Buffer
		if err := runCompare(context.Background(), dir, &buf, compareOptions{baseURL: site}); err != nil {
			t.Fatalf("runCompare() error = %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[+] https://example.com/c") || !strings.Contains(output, "[-] https://example.com/a") {
			t.Errorf("unexpected comparison\n%s", output)
		}
	})

	t.Run("with id", func(t *testing.T) {
		t.Parallel()

		dir, ids := saveRuns(t, site, start, []string{"/a"}, []string{"/a", "/b"}, []string{"/a", "/b", "/c"})
		var buf bytes.Buffer
		err := runCompare(context.Background(), dir, &buf, compareOptions{baseURL: site, withID: ids[0], format: report.HistoryJSON})
		if err != nil {
			t.Fatalf("runCompare() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"direction": "worsened"`) || !strings.Contains(buf.String(), "/b") {
			t.Errorf("unexpected comparison\n%s", buf.String())
		}
	})

	t.Run("since date", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start, []string{"/a"}, []string{"/b"}, nil)
		var buf bytes.Buffer
		err := runCompare(context.Background(), dir, &buf, compareOptions{baseURL: site, since: "2025-01-02"})
		if err != nil {
			t.Fatalf("runCompare() error = %v", err)
		}
		if !strings.Contains(buf.String(), "[-] https://example.com/b") || strings.Contains(buf.String(), "/a") {
			t.Errorf("expected comparison with the 2025-01-02 crawl\n%s", buf.String())
		}
	})

	t.Run("json report file", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start.Add(48*time.Hour), []string{"/b", "/c"})
		path := filepath.Join(t.TempDir(), "previous.json")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		failed := []model.FailedPage{
			{URL: site + "/a", Status: 404, Error: "Not Found", Timestamp: start},
			{URL: site + "/b", Status: 404, Error: "Not Found", Timestamp: start},
		}
		previous := model.NewCrawlReport(site, start.Add(-time.Minute), start, []string{site}, failed, nil)
		if _, err := report.NewJSONWriter(f).Write(previous); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		if err := runCompare(context.Background(), dir, &buf, compareOptions{baseURL: site, file: path}); err != nil {
			t.Fatalf("runCompare() error = %v", err)
		}
		output := buf.String()
		for _, want := range []string{"(file)", "[+] https://example.com/c", "[-] https://example.com/a"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in comparison\n%s", want, output)
			}
		}
	})

	t.Run("missing report file", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start, nil)
		opts := compareOptions{baseURL: site, file: filepath.Join(t.TempDir(), "absent.json")}
		if err := runCompare(context.Background(), dir, &bytes.Buffer{}, opts); err == nil {
			t.Error("expected error for missing report file")
		}
	})

	t.Run("needs two crawls", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start, []string{"/a"})
		err := runCompare(context.Background(), dir, &bytes.Buffer{}, compareOptions{baseURL: site})
		if !errors.Is(err, errNotEnoughHistory) {
			t.Errorf("error = %v, want errNotEnoughHistory", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		dir, ids := saveRuns(t, site, start, nil, nil)
		if err := runCompare(context.Background(), dir, &bytes.Buffer{}, compareOptions{baseURL: site, withID: ids[1] + 5}); err == nil {
			t.Error("expected error for unknown id")
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()

		dir, _ := saveRuns(t, site, start, nil, nil)
		if err := runCompare(context.Background(), dir, &bytes.Buffer{}, compareOptions{baseURL: site, since: "yesterday"}); err == nil {
			t.Error("expected error for invalid date")
		}
	})

	t.Run("no database", func(t *testing.T) {
		t.Parallel()

		err := runCompare(context.Background(), t.TempDir(), &bytes.Buffer{}, compareOptions{baseURL: site})
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

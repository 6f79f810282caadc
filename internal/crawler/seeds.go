package crawler

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// SeedProvider supplies start URLs in addition to the base URL, such as a
// list of content pages that are not linked from the home page.
// A failing provider never fails the crawl; the crawl logs a warning and
// starts from the base URL alone.
type SeedProvider interface {
	Seeds(ctx context.Context, baseURL string) ([]string, error)
}

// StaticSeeds is a fixed list of seeds. Relative entries are resolved
// against the base URL.
type StaticSeeds []string

// Seeds returns the resolved seed URLs.
func (s StaticSeeds) Seeds(_ context.Context, baseURL string) ([]string, error) {
	out := make([]string, 0, len(s))
	for _, seed := range s {
		resolved, err := Resolve(baseURL, seed)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", seed, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

// FileSeeds reads seeds from a text file with one URL or path per line.
// Blank lines and lines starting with # are ignored.
type FileSeeds struct {
	Path string
}

// Seeds reads the file and returns the resolved seed URLs.
func (f FileSeeds) Seeds(ctx context.Context, baseURL string) ([]string, error) {
	file, err := os.Open(f.Path) //nolint:gosec // User-provided seed file path is intentional
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	return StaticSeeds(lines).Seeds(ctx, baseURL)
}

package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStaticSeeds(t *testing.T) {
	t.Parallel()

	got, err := StaticSeeds{"/products/1", "https://example.com/about"}.Seeds(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://example.com/products/1,https://example.com/about"
	if strings.Join(got, ",") != want {
		t.Errorf("got %v, want %s", got, want)
	}

	if _, err := (StaticSeeds{"/bad%zz"}).Seeds(context.Background(), "https://example.com"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestFileSeeds(t *testing.T) {
	t.Parallel()

	t.Run("reads URLs and skips comments", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "seeds.txt")
		content := "# product pages\n/products/1\n\n  /products/2  \nhttps://example.com/terms\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write seed file: %v", err)
		}

		got, err := FileSeeds{Path: path}.Seeds(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://example.com/products/1,https://example.com/products/2,https://example.com/terms"
		if strings.Join(got, ",") != want {
			t.Errorf("got %v, want %s", got, want)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		_, err := FileSeeds{Path: filepath.Join(t.TempDir(), "none.txt")}.Seeds(context.Background(), "https://example.com")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

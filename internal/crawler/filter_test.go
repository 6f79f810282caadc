package crawler

import (
	"errors"
	"testing"

	"github.com/nao1215/sitecrawl/internal/config"
)

func TestFilter_IsExcluded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		exclude []string
		include []string
		url     string
		want    bool
	}{
		{name: "no patterns", url: "http://x.com/a", want: false},
		{name: "exclude match", exclude: []string{`/admin`}, url: "http://x.com/admin/users", want: true},
		{name: "exclude miss", exclude: []string{`/admin`}, url: "http://x.com/blog", want: false},
		{name: "exclude wins over include", exclude: []string{`/private`}, include: []string{`/private`}, url: "http://x.com/private", want: true},
		{name: "include match", include: []string{`/docs/`}, url: "http://x.com/docs/a", want: false},
		{name: "include miss gates the URL", include: []string{`/docs/`}, url: "http://x.com/blog", want: true},
		{name: "any include pattern is enough", include: []string{`/docs/`, `/blog`}, url: "http://x.com/blog", want: false},
		{name: "default excludes pdf", exclude: []string{config.DefaultExcludePattern}, url: "http://x.com/file.PDF", want: true},
		{name: "default keeps html", exclude: []string{config.DefaultExcludePattern}, url: "http://x.com/page.html", want: false},
		{name: "default only matches at the end", exclude: []string{config.DefaultExcludePattern}, url: "http://x.com/logo.png/view", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewFilter(tt.exclude, tt.include)
			if err != nil {
				t.Fatalf("NewFilter() error = %v", err)
			}
			if got := f.IsExcluded(tt.url); got != tt.want {
				t.Errorf("IsExcluded(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := NewFilter([]string{"("}, nil); !errors.Is(err, config.ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern for exclude, got %v", err)
	}
	if _, err := NewFilter(nil, []string{"[z-a]"}); !errors.Is(err, config.ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern for include, got %v", err)
	}
}

package crawler

import (
	"fmt"
	"regexp"

	"github.com/nao1215/sitecrawl/internal/config"
)

// Filter decides whether a URL is crawled, using exclude and include
// regular expressions matched against the full URL.
//
// Exclusion always wins: a URL matching an exclude pattern is never
// crawled, even if it also matches an include pattern. An empty include
// list does not exclude anything.
type Filter struct {
	exclude []*regexp.Regexp
	include []*regexp.Regexp
}

// NewFilter compiles the patterns. An invalid pattern returns an error
// wrapping config.ErrInvalidPattern.
func NewFilter(exclude, include []string) (*Filter, error) {
	ex, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}
	in, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	return &Filter{exclude: ex, include: in}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", config.ErrInvalidPattern, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// IsExcluded reports whether rawURL must not be crawled.
func (f *Filter) IsExcluded(rawURL string) bool {
	for _, re := range f.exclude {
		if re.MatchString(rawURL) {
			return true
		}
	}

	if len(f.include) == 0 {
		return false
	}

	for _, re := range f.include {
		if re.MatchString(rawURL) {
			return false
		}
	}
	return true
}

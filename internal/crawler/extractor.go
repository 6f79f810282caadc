package crawler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/model"
)

// nonNavigationalPrefixes are href schemes that never point at a page.
var nonNavigationalPrefixes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Candidate is a link found on a page that may be queued.
type Candidate struct {
	// URL is the resolved absolute URL without fragment.
	URL string

	// Href is the attribute value as written in the page, trimmed.
	Href string

	// External is true when URL is on a different host than the base URL.
	External bool
}

// Extraction is the result of extracting links from one page.
type Extraction struct {
	// Links are the crawlable links, in markup order, without duplicates.
	Links []Candidate

	// Broken are the hrefs that could not be resolved.
	Broken []model.BrokenLink
}

// Extractor finds the anchors of an HTML page and turns them into
// candidate URLs, applying scope and filter rules.
type Extractor struct {
	scope  scope
	filter *Filter
	logger *slog.Logger
	now    func() time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger for skipped links and parse failures.
func WithExtractorLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExtractorClock sets the clock used for BrokenLink timestamps.
func WithExtractorClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor creates an Extractor for a crawl of baseURL.
// A nil filter excludes nothing.
func NewExtractor(baseURL string, followExternal bool, filter *Filter, opts ...ExtractorOption) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &URLError{Ref: baseURL, Err: err}
	}
	if filter == nil {
		filter = &Filter{}
	}

	e := &Extractor{
		scope:  newScope(base, followExternal),
		filter: filter,
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract parses body as HTML and returns the links of every <a href>.
// Malformed markup is parsed leniently; if parsing fails altogether the
// failure is logged and an empty Extraction is returned.
func (e *Extractor) Extract(pageURL string, body []byte) Extraction {
	result := Extraction{
		Links:  make([]Candidate, 0),
		Broken: make([]model.BrokenLink, 0),
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("failed to parse HTML", "url", pageURL, "error", err)
		return result
	}
	doc := goquery.NewDocumentFromNode(root)

	resolveBase := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		if b, err := Resolve(pageURL, href); err == nil {
			resolveBase = b
		}
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		raw, _ := sel.Attr("href")
		href := strings.TrimSpace(raw)
		if href == "" || href == "#" || isNonNavigational(href) {
			return
		}

		resolved, err := Resolve(resolveBase, href)
		if err != nil {
			result.Broken = append(result.Broken, model.BrokenLink{
				FoundOn:    pageURL,
				BrokenLink: href,
				Error:      "Invalid URI: " + causeOf(err),
				Timestamp:  e.now(),
			})
			return
		}

		u, err := url.Parse(resolved)
		if err != nil || !isHTTP(u) {
			e.logger.Debug("skipping non-HTTP link", "page", pageURL, "href", href)
			return
		}

		external := e.scope.isExternal(u)
		if !e.scope.allows(u) {
			e.logger.Debug("skipping external link", "page", pageURL, "url", resolved)
			return
		}

		if e.filter.IsExcluded(resolved) {
			e.logger.Debug("skipping filtered link", "page", pageURL, "url", resolved)
			return
		}

		key := CanonicalKey(resolved)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		result.Links = append(result.Links, Candidate{URL: resolved, Href: href, External: external})
	})

	return result
}

func isNonNavigational(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range nonNavigationalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// causeOf returns the parse error behind a resolution failure.
func causeOf(err error) string {
	var ue *URLError
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

// isHTMLContent reports whether a Content-Type may carry links.
// A missing header is treated as HTML.
func isHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

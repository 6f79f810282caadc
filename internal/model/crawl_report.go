package model

import (
	"slices"
	"time"
)

// FailedPage records a page that could not be fetched successfully.
// There is exactly one entry per failing fetch; the crawler never retries.
type FailedPage struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Status is the HTTP status code, or StatusException for transport errors.
	Status PageStatus `json:"status"`

	// Error is the HTTP reason phrase or the transport error message.
	Error string `json:"error"`

	// Timestamp is when the failure was observed.
	Timestamp time.Time `json:"timestamp"`
}

// BrokenLink records an href that could not be resolved into an absolute URL.
// A link that resolves but later returns 404 is reported as a FailedPage
// instead, when it is fetched.
type BrokenLink struct {
	// FoundOn is the page on which the href appeared.
	FoundOn string `json:"found_on"`

	// BrokenLink is the original href text, before resolution.
	BrokenLink string `json:"broken_link"`

	// Error describes why resolution failed.
	Error string `json:"error"`

	// Timestamp is when the link was found.
	Timestamp time.Time `json:"timestamp"`
}

// CrawlReport is the snapshot of a finished crawl.
// It is built once by NewCrawlReport and is not modified afterwards; the
// slices it holds are private copies of the crawler's collections.
type CrawlReport struct {
	// BaseURL is the URL the crawl started from.
	BaseURL string `json:"base_url"`

	// StartedAt is when the crawl left the idle state.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the crawl reached the done state.
	CompletedAt time.Time `json:"completed_at"`

	// Iterations is the number of frontier entries consumed.
	Iterations int `json:"iterations"`

	// Truncated is true when the iteration cap stopped the crawl
	// before the frontier was empty.
	Truncated bool `json:"truncated"`

	// VisitedURLs lists every URL fetched, in visit order.
	VisitedURLs []string `json:"all_urls_checked"`

	// FailedPages lists every failing fetch.
	FailedPages []FailedPage `json:"failed_pages"`

	// BrokenLinks lists every unresolvable href.
	BrokenLinks []BrokenLink `json:"broken_links"`
}

// Summary is derived from a CrawlReport.
type Summary struct {
	// PagesChecked is the number of visited URLs.
	PagesChecked int `json:"pages_checked"`

	// FailedPages is the number of failed pages.
	FailedPages int `json:"failed_pages"`

	// BrokenLinks is the number of broken links.
	BrokenLinks int `json:"broken_links"`

	// Healthy is true when there are no failed pages and no broken links.
	Healthy bool `json:"healthy"`

	// Timestamp is the completion time of the crawl.
	Timestamp time.Time `json:"timestamp"`
}

// NewCrawlReport freezes the given collections into a report.
// The slices are cloned so later appends by the caller do not leak in.
func NewCrawlReport(baseURL string, startedAt, completedAt time.Time, visited []string, failed []FailedPage, broken []BrokenLink) *CrawlReport {
	r := &CrawlReport{
		BaseURL:     baseURL,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		VisitedURLs: slices.Clone(visited),
		FailedPages: slices.Clone(failed),
		BrokenLinks: slices.Clone(broken),
	}
	if r.VisitedURLs == nil {
		r.VisitedURLs = make([]string, 0)
	}
	if r.FailedPages == nil {
		r.FailedPages = make([]FailedPage, 0)
	}
	if r.BrokenLinks == nil {
		r.BrokenLinks = make([]BrokenLink, 0)
	}
	return r
}

// Healthy reports whether the crawl found no failed pages and no broken links.
func (r *CrawlReport) Healthy() bool {
	return len(r.FailedPages) == 0 && len(r.BrokenLinks) == 0
}

// Summary returns the counts and healthy flag of the report.
func (r *CrawlReport) Summary() Summary {
	return Summary{
		PagesChecked: len(r.VisitedURLs),
		FailedPages:  len(r.FailedPages),
		BrokenLinks:  len(r.BrokenLinks),
		Healthy:      r.Healthy(),
		Timestamp:    r.CompletedAt,
	}
}

// Duration returns how long the crawl took.
func (r *CrawlReport) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// HasVisited reports whether the URL appears in the visited list.
func (r *CrawlReport) HasVisited(u string) bool {
	return slices.Contains(r.VisitedURLs, u)
}

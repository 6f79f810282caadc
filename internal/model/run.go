package model

import "time"

// RunInfo describes one stored crawl in the report history.
type RunInfo struct {
	// ID is the history record identifier.
	ID int64 `json:"id"`

	// BaseURL is the URL the crawl started from.
	BaseURL string `json:"base_url"`

	// CompletedAt is when the crawl finished.
	CompletedAt time.Time `json:"completed_at"`

	// PagesChecked, FailedPages and BrokenLinks are the summary counts.
	PagesChecked int `json:"pages_checked"`
	FailedPages  int `json:"failed_pages"`
	BrokenLinks  int `json:"broken_links"`

	// Healthy is the summary health flag.
	Healthy bool `json:"healthy"`
}

// NewRunInfo builds the history metadata of a report.
func NewRunInfo(id int64, r *CrawlReport) RunInfo {
	s := r.Summary()
	return RunInfo{
		ID:           id,
		BaseURL:      r.BaseURL,
		CompletedAt:  r.CompletedAt,
		PagesChecked: s.PagesChecked,
		FailedPages:  s.FailedPages,
		BrokenLinks:  s.BrokenLinks,
		Healthy:      s.Healthy,
	}
}

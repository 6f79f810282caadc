package model

import "sort"

// Direction labels for Comparison.Direction.
const (
	DirectionImproved  = "improved"
	DirectionWorsened  = "worsened"
	DirectionUnchanged = "unchanged"
)

// Comparison is the difference between two crawls of the same site.
type Comparison struct {
	// BaseURL is the compared site.
	BaseURL string `json:"base_url"`

	// Previous and Current are the compared runs.
	Previous RunInfo `json:"previous"`
	Current  RunInfo `json:"current"`

	// NewFailures are pages failing now that did not fail before.
	NewFailures []FailedPage `json:"new_failures,omitempty"`

	// FixedFailures are pages that failed before and do not fail now.
	FixedFailures []FailedPage `json:"fixed_failures,omitempty"`

	// NewBrokenLinks are broken links found now but not before.
	NewBrokenLinks []BrokenLink `json:"new_broken_links,omitempty"`

	// FixedBrokenLinks are broken links found before but not now.
	FixedBrokenLinks []BrokenLink `json:"fixed_broken_links,omitempty"`

	// Unchanged counts issues present in both runs.
	Unchanged int `json:"unchanged"`

	// Direction is improved, worsened or unchanged by total issue count.
	Direction string `json:"direction"`
}

// HasChanges reports whether any issue appeared or disappeared.
func (c *Comparison) HasChanges() bool {
	return len(c.NewFailures)+len(c.FixedFailures)+len(c.NewBrokenLinks)+len(c.FixedBrokenLinks) > 0
}

func failureKey(f FailedPage) string {
	return f.URL
}

func brokenLinkKey(b BrokenLink) string {
	return b.FoundOn + "|" + b.BrokenLink
}

// Compare computes the difference between two reports.
// A page counts as the same failure regardless of its status code.
func Compare(previous, current *CrawlReport, previousID, currentID int64) *Comparison {
	c := &Comparison{
		BaseURL:  current.BaseURL,
		Previous: NewRunInfo(previousID, previous),
		Current:  NewRunInfo(currentID, current),
	}

	c.NewFailures, c.FixedFailures, c.Unchanged = diff(previous.FailedPages, current.FailedPages, failureKey)
	var unchangedLinks int
	c.NewBrokenLinks, c.FixedBrokenLinks, unchangedLinks = diff(previous.BrokenLinks, current.BrokenLinks, brokenLinkKey)
	c.Unchanged += unchangedLinks

	before := c.Previous.FailedPages + c.Previous.BrokenLinks
	after := c.Current.FailedPages + c.Current.BrokenLinks
	switch {
	case after < before:
		c.Direction = DirectionImproved
	case after > before:
		c.Direction = DirectionWorsened
	default:
		c.Direction = DirectionUnchanged
	}
	return c
}

// diff returns the entries only in cur, the entries only in prev, and how
// many keys are in both. Results are sorted by key.
func diff[T any](prev, cur []T, key func(T) string) (added, removed []T, same int) {
	before := make(map[string]T, len(prev))
	for _, v := range prev {
		before[key(v)] = v
	}
	after := make(map[string]T, len(cur))
	for _, v := range cur {
		after[key(v)] = v
	}

	for k, v := range after {
		if _, ok := before[k]; ok {
			same++
			continue
		}
		added = append(added, v)
	}
	for k, v := range before {
		if _, ok := after[k]; !ok {
			removed = append(removed, v)
		}
	}

	sort.Slice(added, func(i, j int) bool { return key(added[i]) < key(added[j]) })
	sort.Slice(removed, func(i, j int) bool { return key(removed[i]) < key(removed[j]) })
	return added, removed, same
}

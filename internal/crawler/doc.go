// Package crawler discovers and checks the pages of a single site.
//
// # Architecture
//
// The Spider coordinates a crawl. It owns a Frontier (FIFO queue plus the
// visited set), hands URLs to a bounded pool of fetch workers, and applies
// their results one at a time:
//
//	Frontier -> Filter -> Fetcher -> Extractor -> Resolve/Filter -> Frontier
//	                          \-> FailedPage          \-> BrokenLink
//
// # Components
//
//   - Resolve and CanonicalKey: href resolution and the deduplication key
//   - Filter: exclude/include regular expressions
//   - Fetcher: one GET per URL, redirects surfaced as outcomes
//   - Extractor: anchor extraction with x/net/html and goquery
//   - Frontier: breadth-first queue and visited set
//   - Spider: the crawl state machine (Idle, Running, Draining, Done)
//   - SeedProvider: extra start URLs
//
// # Politeness
//
//   - At most MaxConcurrent requests are in flight
//   - Each worker pauses for the configured delay after a fetch
//   - An optional requests-per-second cap is shared by all workers
//   - Redirects are never followed transparently; the target is queued
//
// # Usage
//
//	cfg := config.NewConfig()
//	report, err := crawler.Crawl(ctx, "https://example.com", cfg)
package crawler

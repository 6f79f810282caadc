// Package model defines the data structures produced by a crawl.
//
// This package contains the following main types:
//   - CrawlReport: The immutable snapshot returned when a crawl finishes
//   - FailedPage: A page whose fetch failed with an HTTP error or a transport error
//   - BrokenLink: An href that could not be resolved into an absolute URL
//   - Summary: Counts and the healthy flag derived from a CrawlReport
//   - RunInfo: Metadata of a crawl stored in the report history
//   - Comparison: New and fixed issues between two stored crawls
//
// The crawler, report and database packages all depend on these types, so they
// live in their own package to avoid import cycles. Every type is serializable
// to JSON for report output and history storage.
package model

// Package main provides the entry point for the sitecrawl CLI.
//
// sitecrawl checks a website for failed pages and broken links. It starts at
// a base URL, follows every same-site link, and reports pages that return an
// error status or cannot be fetched, and hrefs that are not valid URLs.
//
// Usage:
//
//	sitecrawl crawl https://example.com
//	sitecrawl crawl --format json --output report.json https://example.com
//	sitecrawl history https://example.com
//
// See --help for all available options.
package main

// main is the entry point for sitecrawl.
func main() {
	Execute()
}

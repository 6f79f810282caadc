// Package report renders crawl reports.
//
// This package contains writers for the report formats:
//   - ConsoleWriter: Human-readable text for terminal display
//   - JSONWriter: {summary, failed_pages, broken_links, all_urls_checked}
//   - CSVWriter: Sectioned CSV (SUMMARY, FAILED PAGES, BROKEN LINKS, ALL URLS CHECKED)
//   - MarkdownWriter: Markdown rendering of stored reports and the run history
//
// Report data structures live in the model package; this package only
// decides how they look. Generate picks the writer for a Format and the
// destination (stdout, a given file, or a timestamped CSV file).
package report

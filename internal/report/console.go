package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sitecrawl/internal/model"
)

// ConsoleWriter outputs human-readable text reports.
// It uses plain text with ASCII rules so the output can be piped to files
// or other tools without escape codes.
type ConsoleWriter struct {
	baseWriter

	// showURLs lists every checked URL after the findings.
	showURLs bool
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithURLList enables the list of all checked URLs.
func WithURLList(show bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.showURLs = show
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *ConsoleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFailedPages(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeURLs(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 60))
	sb.WriteString("\n")
}

func (w *ConsoleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("CRAWL REPORT\n")
	rule(sb, "=")
	if report.BaseURL != "" {
		fmt.Fprintf(sb, "Site:      %s\n", report.BaseURL)
	}
	if !report.CompletedAt.IsZero() {
		fmt.Fprintf(sb, "Completed: %s (%s)\n",
			report.CompletedAt.Format(timestampLayout), report.Duration().Round(1e6))
	}
	if report.Truncated {
		sb.WriteString("Note:      iteration limit reached, some pages were not checked\n")
	}
	sb.WriteString("\n")
}

// StatusText returns the banner text for a report's health.
func StatusText(healthy bool) string {
	if healthy {
		return "✅ HEALTHY"
	}
	return "❌ ISSUES FOUND"
}

func (w *ConsoleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	s := report.Summary()
	sb.WriteString("Summary:\n")
	fmt.Fprintf(sb, "  Pages checked: %d\n", s.PagesChecked)
	fmt.Fprintf(sb, "  Failed pages:  %d\n", s.FailedPages)
	fmt.Fprintf(sb, "  Broken links:  %d\n", s.BrokenLinks)
	fmt.Fprintf(sb, "  Status:        %s\n", StatusText(s.Healthy))
}

func (w *ConsoleWriter) writeFailedPages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.FailedPages) == 0 {
		return
	}
	sb.WriteString("\nFailed Pages:\n")
	for _, f := range report.FailedPages {
		fmt.Fprintf(sb, "  ❌ %s\n", f.URL)
		fmt.Fprintf(sb, "      Status: %s - %s\n", f.Status, f.Error)
		fmt.Fprintf(sb, "      Time: %s\n\n", f.Timestamp.Format(timestampLayout))
	}
}

func (w *ConsoleWriter) writeBrokenLinks(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.BrokenLinks) == 0 {
		return
	}
	sb.WriteString("\nBroken Links:\n")
	for _, b := range report.BrokenLinks {
		fmt.Fprintf(sb, "  🔗 %s\n", b.BrokenLink)
		fmt.Fprintf(sb, "      Found on: %s\n", b.FoundOn)
		fmt.Fprintf(sb, "      Error: %s\n", b.Error)
		fmt.Fprintf(sb, "      Time: %s\n\n", b.Timestamp.Format(timestampLayout))
	}
}

func (w *ConsoleWriter) writeURLs(sb *strings.Builder, report *model.CrawlReport) {
	if !w.showURLs || len(report.VisitedURLs) == 0 {
		return
	}
	sb.WriteString("\nAll URLs Checked:\n")
	for _, u := range report.VisitedURLs {
		fmt.Fprintf(sb, "  %s\n", u)
	}
}

func (w *ConsoleWriter) writeFooter(sb *strings.Builder, report *model.CrawlReport) {
	if report.Healthy() {
		sb.WriteString("\nAll pages and links are working correctly!\n")
	}
	rule(sb, "=")
}

package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitecrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// It is used for stored reports shown by the history command, where the
// output is usually pasted into an issue or a pull request.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFailedPages(md, report)
	w.writeBrokenLinks(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.BaseURL + "`"},
			{"Completed", report.CompletedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Status", StatusText(report.Healthy())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	s := report.Summary()

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages checked", strconv.Itoa(s.PagesChecked)},
			{"Failed pages", strconv.Itoa(s.FailedPages)},
			{"Broken links", strconv.Itoa(s.BrokenLinks)},
		},
	})
	md.PlainText("")

	if s.PagesChecked > 0 && s.FailedPages > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case report.Truncated:
		md.Warningf("The crawl stopped at the iteration limit after %d pages. Some pages were not checked.", s.PagesChecked)
	case !s.Healthy:
		md.Cautionf("%d failed page(s) and %d broken link(s) found.", s.FailedPages, s.BrokenLinks)
	default:
		md.Tip("All pages and links are working correctly!")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	ok := s.PagesChecked - s.FailedPages
	if ok < 0 {
		ok = 0
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Checked Pages"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("OK", uint64(ok))                //nolint:gosec // clamped to non-negative
	chart.LabelAndIntValue("Failed", uint64(s.FailedPages)) //nolint:gosec // counts are non-negative

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailedPages(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.FailedPages) == 0 {
		return
	}
	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, len(report.FailedPages))
	for i, f := range report.FailedPages {
		rows[i] = []string{f.URL, f.Status.String(), truncateString(f.Error, 60), f.Timestamp.Format(timestampLayout)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error", "Timestamp"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.BrokenLinks) == 0 {
		return
	}
	md.H2("Broken Links")
	md.PlainText("")

	rows := make([][]string, len(report.BrokenLinks))
	for i, b := range report.BrokenLinks {
		rows[i] = []string{"`" + b.BrokenLink + "`", b.FoundOn, truncateString(b.Error, 60), b.Timestamp.Format(timestampLayout)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Broken Link", "Found On", "Error", "Timestamp"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawl](https://github.com/nao1215/sitecrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

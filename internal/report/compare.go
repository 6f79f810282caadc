package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitecrawl/internal/model"
)

// WriteComparison renders the difference between two crawls. It uses the
// same formats as WriteHistory.
func WriteComparison(output io.Writer, c *model.Comparison, format HistoryFormat) error {
	switch format {
	case HistoryJSON:
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case HistoryMarkdown:
		return writeComparisonMarkdown(output, c)
	default:
		return writeComparisonText(output, c)
	}
}

// directionText formats the change direction for display.
func directionText(direction string) string {
	switch direction {
	case model.DirectionImproved:
		return "IMPROVED (fewer issues)"
	case model.DirectionWorsened:
		return "WORSENED (more issues)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

// runLabel names a compared crawl. ID 0 is a report loaded from a file.
func runLabel(id int64) string {
	if id == 0 {
		return "(file)"
	}
	return "#" + strconv.FormatInt(id, 10)
}

func writeComparisonText(output io.Writer, c *model.Comparison) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Crawl Comparison: %s\n", c.BaseURL)
	rule(&sb, "=")
	fmt.Fprintf(&sb, "\nStatus: %s\n", directionText(c.Direction))
	fmt.Fprintf(&sb, "\nPrevious crawl: %s %s\n", runLabel(c.Previous.ID), c.Previous.CompletedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Current crawl:  %s %s\n", runLabel(c.Current.ID), c.Current.CompletedAt.Format("2006-01-02 15:04:05"))

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %-14s  %-9s  %-9s  %s\n", "", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 45) + "\n")
	for _, row := range []struct {
		label     string
		prev, cur int
	}{
		{"Pages checked", c.Previous.PagesChecked, c.Current.PagesChecked},
		{"Failed pages", c.Previous.FailedPages, c.Current.FailedPages},
		{"Broken links", c.Previous.BrokenLinks, c.Current.BrokenLinks},
	} {
		fmt.Fprintf(&sb, "  %-14s  %-9d  %-9d  %s\n", row.label, row.prev, row.cur, formatDelta(row.cur-row.prev))
	}

	if len(c.NewFailures) > 0 {
		fmt.Fprintf(&sb, "\nNew Failed Pages (%d):\n", len(c.NewFailures))
		for _, f := range c.NewFailures {
			fmt.Fprintf(&sb, "  [+] %s (%s - %s)\n", f.URL, f.Status, f.Error)
		}
	}
	if len(c.FixedFailures) > 0 {
		fmt.Fprintf(&sb, "\nFixed Pages (%d):\n", len(c.FixedFailures))
		for _, f := range c.FixedFailures {
			fmt.Fprintf(&sb, "  [-] %s\n", f.URL)
		}
	}
	if len(c.NewBrokenLinks) > 0 {
		fmt.Fprintf(&sb, "\nNew Broken Links (%d):\n", len(c.NewBrokenLinks))
		for _, b := range c.NewBrokenLinks {
			fmt.Fprintf(&sb, "  [+] %s on %s\n", b.BrokenLink, b.FoundOn)
		}
	}
	if len(c.FixedBrokenLinks) > 0 {
		fmt.Fprintf(&sb, "\nFixed Broken Links (%d):\n", len(c.FixedBrokenLinks))
		for _, b := range c.FixedBrokenLinks {
			fmt.Fprintf(&sb, "  [-] %s on %s\n", b.BrokenLink, b.FoundOn)
		}
	}
	if c.Unchanged > 0 {
		fmt.Fprintf(&sb, "\nUnchanged: %d issues\n", c.Unchanged)
	}

	_, err := io.WriteString(output, sb.String())
	return err
}

func writeComparisonMarkdown(output io.Writer, c *model.Comparison) error {
	md := markdown.NewMarkdown(output)

	md.H1("Crawl Comparison: " + c.BaseURL)
	md.PlainText("")
	md.PlainTextf("**Status:** %s", directionText(c.Direction))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Crawl", runLabel(c.Previous.ID), runLabel(c.Current.ID), "-"},
			{"Date", c.Previous.CompletedAt.Format("2006-01-02 15:04"), c.Current.CompletedAt.Format("2006-01-02 15:04"), "-"},
			{"Pages checked", strconv.Itoa(c.Previous.PagesChecked), strconv.Itoa(c.Current.PagesChecked), formatDelta(c.Current.PagesChecked - c.Previous.PagesChecked)},
			{"Failed pages", strconv.Itoa(c.Previous.FailedPages), strconv.Itoa(c.Current.FailedPages), formatDelta(c.Current.FailedPages - c.Previous.FailedPages)},
			{"Broken links", strconv.Itoa(c.Previous.BrokenLinks), strconv.Itoa(c.Current.BrokenLinks), formatDelta(c.Current.BrokenLinks - c.Previous.BrokenLinks)},
		},
	})
	md.PlainText("")

	if len(c.NewFailures) > 0 {
		md.H2f("New Failed Pages (%d)", len(c.NewFailures))
		items := make([]string, len(c.NewFailures))
		for i, f := range c.NewFailures {
			items[i] = fmt.Sprintf("`%s` (%s - %s)", f.URL, f.Status, f.Error)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(c.FixedFailures) > 0 {
		md.H2f("Fixed Pages (%d)", len(c.FixedFailures))
		items := make([]string, len(c.FixedFailures))
		for i, f := range c.FixedFailures {
			items[i] = "~~`" + f.URL + "`~~"
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(c.NewBrokenLinks) > 0 {
		md.H2f("New Broken Links (%d)", len(c.NewBrokenLinks))
		items := make([]string, len(c.NewBrokenLinks))
		for i, b := range c.NewBrokenLinks {
			items[i] = fmt.Sprintf("`%s` on %s", b.BrokenLink, b.FoundOn)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(c.FixedBrokenLinks) > 0 {
		md.H2f("Fixed Broken Links (%d)", len(c.FixedBrokenLinks))
		items := make([]string, len(c.FixedBrokenLinks))
		for i, b := range c.FixedBrokenLinks {
			items[i] = fmt.Sprintf("~~`%s` on %s~~", b.BrokenLink, b.FoundOn)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if c.Unchanged > 0 {
		md.HorizontalRule()
		md.PlainTextf("*%d issues unchanged*", c.Unchanged)
	}
	return md.Build()
}

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/sitecrawl/internal/model"
)

// CSV section titles.
const (
	csvSectionSummary     = "SUMMARY"
	csvSectionFailedPages = "FAILED PAGES"
	csvSectionBrokenLinks = "BROKEN LINKS"
	csvSectionAllURLs     = "ALL URLS CHECKED"
)

// CSVWriter outputs a report as a sectioned CSV file. Sections are
// separated by an empty record; FAILED PAGES and BROKEN LINKS are omitted
// when empty.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// countingWriter counts bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// Write outputs the report in CSV format.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)
	s := report.Summary()

	status := "ISSUES FOUND"
	if s.Healthy {
		status = "HEALTHY"
	}

	records := [][]string{
		{csvSectionSummary},
		{"Pages Checked", strconv.Itoa(s.PagesChecked)},
		{"Failed Pages", strconv.Itoa(s.FailedPages)},
		{"Broken Links", strconv.Itoa(s.BrokenLinks)},
		{"Status", status},
		{"Timestamp", s.Timestamp.Format(timestampLayout)},
		{""},
	}

	if len(report.FailedPages) > 0 {
		records = append(records,
			[]string{csvSectionFailedPages},
			[]string{"URL", "Status", "Error", "Timestamp"},
		)
		for _, f := range report.FailedPages {
			records = append(records, []string{f.URL, f.Status.String(), f.Error, f.Timestamp.Format(timestampLayout)})
		}
		records = append(records, []string{""})
	}

	if len(report.BrokenLinks) > 0 {
		records = append(records,
			[]string{csvSectionBrokenLinks},
			[]string{"Broken Link", "Found On", "Error", "Timestamp"},
		)
		for _, b := range report.BrokenLinks {
			records = append(records, []string{b.BrokenLink, b.FoundOn, b.Error, b.Timestamp.Format(timestampLayout)})
		}
		records = append(records, []string{""})
	}

	records = append(records, []string{csvSectionAllURLs})
	for _, u := range report.VisitedURLs {
		records = append(records, []string{u})
	}

	if err := cw.WriteAll(records); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

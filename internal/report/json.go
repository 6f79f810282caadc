package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/sitecrawl/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs compact JSON unless an
// indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONDocument is the layout of a JSON report.
type JSONDocument struct {
	Summary        model.Summary      `json:"summary"`
	FailedPages    []model.FailedPage `json:"failed_pages"`
	BrokenLinks    []model.BrokenLink `json:"broken_links"`
	AllURLsChecked []string           `json:"all_urls_checked"`
}

// NewJSONDocument builds the JSON layout of a report.
func NewJSONDocument(report *model.CrawlReport) *JSONDocument {
	doc := &JSONDocument{
		Summary:        report.Summary(),
		FailedPages:    report.FailedPages,
		BrokenLinks:    report.BrokenLinks,
		AllURLsChecked: report.VisitedURLs,
	}
	if doc.FailedPages == nil {
		doc.FailedPages = []model.FailedPage{}
	}
	if doc.BrokenLinks == nil {
		doc.BrokenLinks = []model.BrokenLink{}
	}
	if doc.AllURLsChecked == nil {
		doc.AllURLsChecked = []string{}
	}
	return doc
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.writeJSON(NewJSONDocument(report))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// ReadJSON parses a JSON report produced by JSONWriter.
func ReadJSON(r io.Reader) (*JSONDocument, error) {
	var doc JSONDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode JSON report: %w", err)
	}
	return &doc, nil
}

// Report rebuilds a CrawlReport for baseURL from a decoded document.
// The JSON layout carries only the completion time, so StartedAt equals
// CompletedAt.
func (d *JSONDocument) Report(baseURL string) *model.CrawlReport {
	ts := d.Summary.Timestamp
	return model.NewCrawlReport(baseURL, ts, ts, d.AllURLsChecked, d.FailedPages, d.BrokenLinks)
}

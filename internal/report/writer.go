package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers, for example the console and a
// JSON file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// NewWriter returns the Writer for format writing to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatConsole:
		return NewConsoleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatCSV:
		return NewCSVWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Option configures Generate.
type Option func(*options)

type options struct {
	stdout   io.Writer
	now      func() time.Time
	dir      string
	listURLs bool
	jsonCopy string
}

// WithStdout sets where console and JSON reports go when no output file
// is given. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithClock sets the clock used to name default CSV files.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithDir sets the directory for default CSV files. The default is the
// working directory.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithURLs adds the list of every checked URL to console reports.
func WithURLs(show bool) Option {
	return func(o *options) {
		o.listURLs = show
	}
}

// WithJSONCopy also writes the report as JSON to path, whatever the
// main format is.
func WithJSONCopy(path string) Option {
	return func(o *options) {
		o.jsonCopy = path
	}
}

// newWriter is NewWriter with the console options applied.
func (o *options) newWriter(format Format, output io.Writer) (Writer, error) {
	if format == FormatConsole {
		return NewConsoleWriter(output, WithURLList(o.listURLs)), nil
	}
	return NewWriter(format, output)
}

// Generate renders r in format.
//
// Console and JSON reports go to outputFile when it is set and to stdout
// otherwise. CSV reports always go to a file; without outputFile one named
// crawl_report_YYYYMMDD_HHMMSS.csv is created. The returned path is the
// file written, or empty for stdout.
func Generate(r *model.CrawlReport, format Format, outputFile string, opts ...Option) (path string, err error) {
	o := options{stdout: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case FormatConsole, FormatJSON:
	case FormatCSV:
		if outputFile == "" {
			outputFile = filepath.Join(o.dir, DefaultCSVFileName(o.now()))
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	dst := o.stdout
	if outputFile != "" {
		f, ferr := createReportFile(outputFile)
		if ferr != nil {
			return "", ferr
		}
		defer closeReportFile(f, &err)
		dst = f
	}

	w, err := o.newWriter(format, dst)
	if err != nil {
		return "", err
	}

	if o.jsonCopy != "" {
		cf, ferr := createReportFile(o.jsonCopy)
		if ferr != nil {
			return "", ferr
		}
		defer closeReportFile(cf, &err)
		w = NewMultiWriter(w, NewJSONWriter(cf, WithPrettyPrint()))
	}

	if _, err := w.Write(r); err != nil {
		return "", fmt.Errorf("write %s report: %w", format, err)
	}
	return outputFile, nil
}

func createReportFile(path string) (*os.File, error) {
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}

func closeReportFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("close report file: %w", cerr))
	}
}

// DefaultCSVFileName returns the CSV file name used when no output file is
// configured.
func DefaultCSVFileName(t time.Time) string {
	return "crawl_report_" + t.Format("20060102_150405") + ".csv"
}

// timestampLayout is used for timestamps in console and CSV output.
const timestampLayout = time.RFC3339

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/spf13/cobra"
)

// errNotEnoughHistory is returned when fewer than two crawls can be compared.
var errNotEnoughHistory = errors.New("at least 2 crawls are required for comparison")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <base-url>",
		Short: "Compare the latest crawl with an earlier one",
		Long: `Compare shows how a site changed between two stored crawls:
- Pages that started failing
- Pages that were fixed
- Broken links that appeared or disappeared

By default the latest crawl is compared with the one before it. With
--file the latest crawl is compared with a JSON report written by
'sitecrawl crawl --format json'.

Examples:
  # Compare the latest two crawls
  sitecrawl compare https://example.com

  # Compare with a specific crawl by ID (see 'sitecrawl history')
  sitecrawl compare --with-id 5 https://example.com

  # Compare with the first crawl since a date
  sitecrawl compare --since 2025-01-01 https://example.com

  # Compare with a saved JSON report
  sitecrawl compare --file last-release.json https://example.com

  # Output as Markdown
  sitecrawl compare --markdown https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with the crawl that has this ID")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first crawl on or after this date (YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")
	cmd.Flags().StringP("file", "F", "",
		"Compare with a JSON crawl report file")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("with-id", "since", "file")

	return cmd
}

// compareOptions holds the parsed compare command flags.
type compareOptions struct {
	baseURL string
	withID  int64
	since   string
	file    string
	format  report.HistoryFormat
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts := compareOptions{
		baseURL: strings.TrimSuffix(strings.TrimSpace(args[0]), "/"),
	}

	var err error
	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}
	if opts.file, err = cmd.Flags().GetString("file"); err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	switch {
	case jsonOut:
		opts.format = report.HistoryJSON
	case markdownOut:
		opts.format = report.HistoryMarkdown
	}

	return runCompare(cmd.Context(), config.XDGDataDir(), cmd.OutOrStdout(), opts)
}

// runCompare compares two stored crawls of opts.baseURL.
func runCompare(ctx context.Context, dir string, w io.Writer, opts compareOptions) error {
	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no crawl history: %w", err)
	}
	defer db.Close()

	currentID, curReport, err := db.GetLatestReport(ctx, opts.baseURL)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no crawl history found for %s", opts.baseURL)
	}
	if err != nil {
		return err
	}

	if opts.file != "" {
		prevReport, err := loadReportFile(opts.file, opts.baseURL)
		if err != nil {
			return err
		}
		return report.WriteComparison(w, model.Compare(prevReport, curReport, 0, currentID), opts.format)
	}

	runs, err := db.ListRuns(ctx, opts.baseURL)
	if err != nil {
		return err
	}

	var previous *model.RunInfo

	// runs are newest first; runs[0] is the latest crawl.
	switch {
	case opts.withID > 0:
		for i := range runs {
			if runs[i].ID == opts.withID {
				previous = &runs[i]
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("crawl %d not found for %s", opts.withID, opts.baseURL)
		}
	case opts.since != "":
		since, err := time.Parse("2006-01-02", opts.since)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].CompletedAt.Before(since) {
				previous = &runs[i]
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("no crawls found since %s", opts.since)
		}
	case len(runs) > 1:
		previous = &runs[1]
	}

	if previous == nil || previous.ID == currentID {
		return fmt.Errorf("%w (found %d)", errNotEnoughHistory, len(runs))
	}

	prevReport, err := db.GetReport(ctx, previous.ID)
	if err != nil {
		return err
	}

	return report.WriteComparison(w, model.Compare(prevReport, curReport, previous.ID, currentID), opts.format)
}

// loadReportFile reads a JSON crawl report written for baseURL.
func loadReportFile(path, baseURL string) (*model.CrawlReport, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	doc, err := report.ReadJSON(f)
	if err != nil {
		return nil, err
	}
	return doc.Report(baseURL), nil
}

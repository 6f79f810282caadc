package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [base-url]",
		Short: "Show previous crawl results",
		Long: `History lists the crawls saved in the local history database, newest first.
Without a base URL every site is listed.

Examples:
  # List every stored crawl
  sitecrawl history

  # List crawls of one site as a Markdown table
  sitecrawl history --markdown https://example.com

  # Show a stored report again, as JSON
  sitecrawl history --id 12 --format json

  # List the sites that have history
  sitecrawl history --list-sites

  # Forget crawls older than 30 days
  sitecrawl history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output the run list as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run list as Markdown (mutually exclusive with --json)")
	cmd.Flags().Int64("id", 0,
		"Show the stored report with this ID")
	cmd.Flags().StringP("format", "f", config.DefaultOutputFormat,
		"Format for --id: "+strings.Join(report.FormatNames(), ", ")+", markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report selected by --id to this file")
	cmd.Flags().Bool("list-sites", false,
		"List the base URLs that have stored crawls")
	cmd.Flags().Duration("prune", 0,
		"Delete crawls older than this duration")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// historyOptions holds the parsed history command flags.
type historyOptions struct {
	baseURL   string
	id        int64
	format    string
	output    string
	listSites bool
	prune     time.Duration
	listing   report.HistoryFormat
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var opts historyOptions
	var err error

	if len(args) > 0 {
		opts.baseURL = strings.TrimSuffix(strings.TrimSpace(args[0]), "/")
	}
	if opts.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return err
	}
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if opts.listSites, err = cmd.Flags().GetBool("list-sites"); err != nil {
		return err
	}
	if opts.prune, err = cmd.Flags().GetDuration("prune"); err != nil {
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
		opts.listing = report.HistoryJSON
	case markdownOut:
		opts.listing = report.HistoryMarkdown
	default:
		opts.listing = report.HistoryText
	}

	return runHistory(cmd.Context(), config.XDGDataDir(), cmd.OutOrStdout(), opts)
}

// runHistory reads the history database in dir.
func runHistory(ctx context.Context, dir string, w io.Writer, opts historyOptions) error {
	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		_, werr := io.WriteString(w, "No crawl history found.\n")
		return werr
	}
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case opts.prune > 0:
		n, err := db.DeleteRunsBefore(ctx, time.Now().Add(-opts.prune))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Deleted %d crawl(s) older than %s\n", n, opts.prune)
		return err

	case opts.listSites:
		sites, err := db.ListSites(ctx)
		if err != nil {
			return err
		}
		return report.WriteSites(w, sites)

	case opts.id > 0:
		stored, err := db.GetReport(ctx, opts.id)
		if err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(opts.format), "markdown") {
			_, err = report.NewMarkdownWriter(w).Write(stored)
			return err
		}
		format, err := report.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		path, err := report.Generate(stored, format, opts.output, report.WithStdout(w))
		if err != nil {
			return err
		}
		if path != "" {
			_, err = fmt.Fprintf(w, "Report saved to %s\n", path)
		}
		return err

	default:
		runs, err := db.ListRuns(ctx, opts.baseURL)
		if err != nil {
			return err
		}
		return report.WriteHistory(w, runs, opts.listing)
	}
}

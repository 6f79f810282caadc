package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/spf13/cobra"
)

// ErrIssuesFound is returned by crawl --fail-on-issues when the report is
// not healthy.
var ErrIssuesFound = errors.New("crawl found failed pages or broken links")

// progressInterval is how many checked pages pass between progress lines.
const progressInterval = 5

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [base-url]",
		Short: "Crawl a website and report failed pages and broken links",
		Long: `Crawl fetches the base URL, extracts its links, and keeps following links
on the same site until no unchecked page is left (or the iteration limit
is reached). Every page is fetched once.

Options come from built-in defaults, then the configuration file, then
command-line flags. The base URL may also be set in the configuration file.

Examples:
  # Crawl a site and print the report
  sitecrawl crawl https://example.com

  # Write a JSON report
  sitecrawl crawl --format json --output report.json https://example.com

  # Print the report and keep a JSON copy for 'sitecrawl compare --file'
  sitecrawl crawl --json-copy report.json https://example.com

  # Write a CSV report named crawl_report_YYYYMMDD_HHMMSS.csv
  sitecrawl crawl --format csv https://example.com

  # Be gentle: one request at a time, half a second apart
  sitecrawl crawl --concurrency 1 --delay 0.5 https://example.com

  # Fail CI when something is broken
  sitecrawl crawl --quiet --fail-on-issues https://example.com

Configuration file (.sitecrawl) example:
  base_url: https://example.com
  max_concurrent: 3
  delay_between_requests: 0.2
  exclude_patterns:
    - '\.pdf$'
    - '/admin/'
  headers:
    Authorization: "Bearer token"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawl in current or home directory)")

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultMaxConcurrent,
		"Maximum number of concurrent requests")
	cmd.Flags().Float64P("delay", "d", config.DefaultDelay.Seconds(),
		"Pause in seconds after each request, per worker")
	cmd.Flags().Float64P("timeout", "t", config.DefaultTimeout.Seconds(),
		"Timeout in seconds for each request")
	cmd.Flags().BoolP("external", "e", false,
		"Also crawl links that leave the base URL's host")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with each request")
	cmd.Flags().StringArrayP("exclude", "x", nil,
		"Regular expression of URLs to skip (repeatable, replaces the defaults)")
	cmd.Flags().StringArrayP("include", "i", nil,
		"Regular expression a URL must match to be crawled (repeatable)")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra request header as "Name: value" (repeatable)`)
	cmd.Flags().Int("max-iterations", config.DefaultMaxIterations,
		"Stop after this many URLs have been taken from the queue")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body bytes read per page")
	cmd.Flags().Float64("rps", 0,
		"Maximum requests per second across all workers (0 = unlimited)")
	cmd.Flags().String("seed-file", "",
		"File with extra start URLs, one per line")

	// Report flags
	cmd.Flags().StringP("format", "f", config.DefaultOutputFormat,
		"Report format: "+strings.Join(report.FormatNames(), ", "))
	cmd.Flags().StringP("output", "o", "",
		"Write the report to this file (csv defaults to crawl_report_<time>.csv)")
	cmd.Flags().String("json-copy", "",
		"Also write the report as JSON to this file")
	cmd.Flags().Bool("list-urls", false,
		"List every checked URL in the console report")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print progress")
	cmd.Flags().Bool("no-history", false,
		"Do not save the report in the history database")
	cmd.Flags().Bool("fail-on-issues", false,
		"Exit with status 1 when failed pages or broken links are found")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")

	return cmd
}

// crawlOptions holds the command settings that are not crawl configuration.
type crawlOptions struct {
	quiet        bool
	failOnIssues bool
	listURLs     bool
	jsonCopy     string
	stdout       io.Writer
	stderr       io.Writer
	crawlOpts    []crawler.SpiderOption
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, jsonLog)
	slog.SetDefault(logger)

	opts := crawlOptions{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	if opts.quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return err
	}
	if opts.failOnIssues, err = cmd.Flags().GetBool("fail-on-issues"); err != nil {
		return err
	}
	if opts.listURLs, err = cmd.Flags().GetBool("list-urls"); err != nil {
		return err
	}
	if opts.jsonCopy, err = cmd.Flags().GetString("json-copy"); err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, opts)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig layers defaults, the configuration file and explicitly set
// flags into a Config.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// An explicitly given file must exist; the default lookup may find nothing.
	if path := config.FindConfigFile(configPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.ApplyTo(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg. Flags left at their
// default do not override the configuration file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := flags.Changed

	if changed("concurrency") {
		v, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.MaxConcurrent = v
	}
	if changed("delay") {
		v, err := flags.GetFloat64("delay")
		if err != nil {
			return err
		}
		cfg.Delay = config.SecondsToDuration(v)
	}
	if changed("timeout") {
		v, err := flags.GetFloat64("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = config.SecondsToDuration(v)
	}
	if changed("external") {
		v, err := flags.GetBool("external")
		if err != nil {
			return err
		}
		cfg.FollowExternalLinks = v
	}
	if changed("user-agent") {
		v, err := flags.GetString("user-agent")
		if err != nil {
			return err
		}
		cfg.UserAgent = v
	}
	if changed("exclude") {
		v, err := flags.GetStringArray("exclude")
		if err != nil {
			return err
		}
		cfg.ExcludePatterns = v
	}
	if changed("include") {
		v, err := flags.GetStringArray("include")
		if err != nil {
			return err
		}
		cfg.IncludePatterns = v
	}
	if changed("header") {
		v, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		for _, h := range v {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return fmt.Errorf("invalid header %q (want \"Name: value\")", h)
			}
			cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	if changed("max-iterations") {
		v, err := flags.GetInt("max-iterations")
		if err != nil {
			return err
		}
		cfg.MaxIterations = v
	}
	if changed("max-body-size") {
		v, err := flags.GetInt64("max-body-size")
		if err != nil {
			return err
		}
		cfg.MaxBodySize = v
	}
	if changed("rps") {
		v, err := flags.GetFloat64("rps")
		if err != nil {
			return err
		}
		cfg.RequestsPerSecond = v
	}
	if changed("seed-file") {
		v, err := flags.GetString("seed-file")
		if err != nil {
			return err
		}
		cfg.SeedFile = v
	}
	if changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.OutputFormat = v
	}
	if changed("output") {
		v, err := flags.GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFile = v
	}
	if changed("no-history") {
		v, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveHistory = !v
	}
	return nil
}

// setupLogger creates a redacting structured logger on w.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// runCrawl crawls cfg.BaseURL, renders the report and stores it in the
// history. A cancelled crawl still renders what was collected and then
// returns the cancellation error.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts crawlOptions) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w (pass it as an argument or set base_url in the configuration file)",
			crawler.ErrMissingBaseURL)
	}

	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"maxConcurrent", cfg.MaxConcurrent,
		"delay", cfg.Delay,
		"followExternal", cfg.FollowExternalLinks,
	)

	spiderOpts := append([]crawler.SpiderOption{crawler.WithLogger(logger)}, opts.crawlOpts...)
	if !opts.quiet {
		spiderOpts = append(spiderOpts, crawler.WithProgress(progressPrinter(opts.stderr)))
		fmt.Fprintf(opts.stderr, "Crawling %s...\n", log.RedactURL(cfg.BaseURL))
	}

	startTime := time.Now()
	crawlReport, crawlErr := crawler.Crawl(ctx, cfg.BaseURL, cfg, spiderOpts...)
	if crawlReport == nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	if !opts.quiet {
		fmt.Fprintf(opts.stderr, "Crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	}
	if crawlErr != nil {
		logger.Warn("crawl interrupted, reporting partial results", "error", crawlErr)
	}

	// A partial crawl is not a run worth comparing against later.
	if crawlErr == nil && cfg.SaveHistory {
		if err := saveReport(ctx, cfg.HistoryDir, crawlReport, logger); err != nil {
			logger.Error("failed to save crawl report", "error", err)
		}
	}

	format, err := report.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}
	path, err := report.Generate(crawlReport, format, cfg.OutputFile,
		report.WithStdout(opts.stdout),
		report.WithURLs(opts.listURLs),
		report.WithJSONCopy(opts.jsonCopy),
	)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if path != "" {
		fmt.Fprintf(opts.stderr, "Report saved to %s\n", path)
	}
	if opts.jsonCopy != "" {
		fmt.Fprintf(opts.stderr, "JSON copy saved to %s\n", opts.jsonCopy)
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	}
	if opts.failOnIssues && !crawlReport.Healthy() {
		return ErrIssuesFound
	}
	return nil
}

// progressPrinter returns a progress callback that prints a line every
// progressInterval checked pages.
func progressPrinter(w io.Writer) func(crawler.Progress) {
	last := 0
	return func(p crawler.Progress) {
		if p.PagesChecked-last < progressInterval {
			return
		}
		last = p.PagesChecked
		fmt.Fprintf(w, "  checked %d pages (%d queued, %d failed, %d broken links) in %s\n",
			p.PagesChecked, p.Queued, p.FailedPages, p.BrokenLinks, p.Elapsed.Round(time.Second))
	}
}

// saveReport stores the report in the history database in dir.
func saveReport(ctx context.Context, dir string, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveReport(ctx, crawlReport)
	if err != nil {
		return err
	}

	logger.Info("crawl report saved to history", "id", id, "baseURL", crawlReport.BaseURL)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawl",
		Short: "Check a website for failed pages and broken links",
		Long: `sitecrawl crawls a website from a base URL, following every link that
stays on the same site, and reports:
- Failed pages (HTTP error status or a request that could not complete)
- Broken links (hrefs that cannot be turned into a valid URL)

Reports can be printed to the console or written as JSON or CSV, and every
finished crawl is kept in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		// The report already explains the issues.
		if !errors.Is(err, ErrIssuesFound) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

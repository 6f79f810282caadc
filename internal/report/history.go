package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitecrawl/internal/model"
)

// HistoryFormat selects how a run listing is rendered.
type HistoryFormat int

const (
	// HistoryText is an aligned plain-text table.
	HistoryText HistoryFormat = iota
	// HistoryJSON is a JSON array of runs.
	HistoryJSON
	// HistoryMarkdown is a Markdown table.
	HistoryMarkdown
)

// WriteHistory renders a list of stored runs.
func WriteHistory(output io.Writer, runs []model.RunInfo, format HistoryFormat) error {
	switch format {
	case HistoryJSON:
		if runs == nil {
			runs = []model.RunInfo{}
		}
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case HistoryMarkdown:
		return writeHistoryMarkdown(output, runs)
	default:
		return writeHistoryText(output, runs)
	}
}

func healthLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "issues"
}

func writeHistoryText(output io.Writer, runs []model.RunInfo) error {
	if len(runs) == 0 {
		_, err := io.WriteString(output, "No crawl history found.\n")
		return err
	}

	tw := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPLETED\tSITE\tPAGES\tFAILED\tBROKEN\tSTATUS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.CompletedAt.Format("2006-01-02 15:04:05"), r.BaseURL,
			r.PagesChecked, r.FailedPages, r.BrokenLinks, healthLabel(r.Healthy))
	}
	return tw.Flush()
}

func writeHistoryMarkdown(output io.Writer, runs []model.RunInfo) error {
	md := markdown.NewMarkdown(output)
	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No crawl history found.")
		return md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.CompletedAt.Format("2006-01-02 15:04:05"),
			"`" + r.BaseURL + "`",
			strconv.Itoa(r.PagesChecked),
			strconv.Itoa(r.FailedPages),
			strconv.Itoa(r.BrokenLinks),
			StatusText(r.Healthy),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Completed", "Site", "Pages", "Failed", "Broken", "Status"},
		Rows:   rows,
	})
	return md.Build()
}

// WriteSites renders the list of distinct sites in the history.
func WriteSites(output io.Writer, sites []string) error {
	if len(sites) == 0 {
		_, err := io.WriteString(output, "No crawl history found.\n")
		return err
	}
	_, err := io.WriteString(output, strings.Join(sites, "\n")+"\n")
	return err
}

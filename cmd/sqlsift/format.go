package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	procStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// outputResultText dispatches on the result payload.
func outputResultText(w io.Writer, result CLIResult) error {
	switch r := result.Results.(type) {
	case CLIAnalysis:
		formatAnalysisText(w, r)
	case []CLIRun:
		formatRunsText(w, r)
	case []CLIRankedCall:
		formatRankingTable(w, r)
	default:
		return fmt.Errorf("no text format for %s results", result.Command)
	}
	return nil
}

// formatAnalysisText prints one section per file followed by the global
// call summary.
func formatAnalysisText(w io.Writer, a CLIAnalysis) {
	fmt.Fprintln(w, headingStyle.Render("=== SQL access report ==="))
	fmt.Fprintf(w, "Analyzing: %s\n", a.Root)

	for _, f := range a.Files {
		formatFileText(w, f)
	}

	if len(a.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Skipped %d file(s):", len(a.Skipped))))
		for _, s := range a.Skipped {
			fmt.Fprintf(w, "  - %s: %s\n", s.Path, s.Reason)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("=== Method call summary ==="))
	for _, rc := range a.Ranking {
		fmt.Fprintf(w, "\n%s - called %d times:\n", rc.Name, rc.Count)
		for _, ex := range rc.Examples {
			fmt.Fprintf(w, "  - %s:%d\n", ex.File, ex.Line)
		}
		if rc.Remaining > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", rc.Remaining)
		}
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d files, %d calls", len(a.Files), a.TotalCalls)
	if a.RunID != "" {
		summary += ", run " + a.RunID
	}
	fmt.Fprintln(w, mutedStyle.Render(summary))
}

func formatFileText(w io.Writer, f CLIFileReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, fileStyle.Render(fmt.Sprintf("--- File: %s ---", f.Name)))

	if len(f.Dependencies) > 0 {
		fmt.Fprintln(w, "\nDependencies:")
		for _, d := range f.Dependencies {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}

	fmt.Fprintf(w, "\nMethod calls in this file: %d\n", f.CallCount)
	for _, g := range f.TopCalls {
		fmt.Fprintf(w, "  - %s: %d calls\n", g.Name, g.Count)
	}

	if len(f.Findings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSQL calls:")
	for _, fd := range f.Findings {
		fmt.Fprintf(w, "\n  Line %d - %s:\n", fd.Line, fd.Type)
		fmt.Fprintf(w, "    %s\n", fd.Excerpt)
		if fd.ContainsExec {
			fmt.Fprintf(w, "    %s\n", warnStyle.Render("! Contains EXEC/EXECUTE"))
		}
		if fd.StoredProcedure != "" {
			fmt.Fprintf(w, "    %s\n", procStyle.Render("Stored procedure: "+fd.StoredProcedure))
		}
	}
}

// formatRunsText formats stored runs as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tFILES\tCALLS\tFINDINGS\tROOT")
	for _, r := range runs {
		started := r.StartedAt.Local().Format(time.DateTime)
		if r.FinishedAt == nil {
			started += " (incomplete)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, started, r.FileCount, r.CallCount, r.FindingCount, r.Root)
	}
	tw.Flush()
}

// formatRankingTable formats a stored ranking as aligned columns.
func formatRankingTable(w io.Writer, ranking []CLIRankedCall) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOUNT\tNAME")
	for _, rc := range ranking {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", rc.Rank, rc.Count, rc.Name)
	}
	tw.Flush()
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
)

// printSummary writes the end-of-run report.
func printSummary(w io.Writer, r *core.BatchReport) {
	fmt.Fprintf(w, "\nRun %s %s\n", r.RunID, r.State)
	fmt.Fprintf(w, "  records:   %d\n", r.Total)
	fmt.Fprintf(w, "  succeeded: %d\n", len(r.Succeeded))
	fmt.Fprintf(w, "  failed:    %d\n", len(r.Failed))
	fmt.Fprintf(w, "  skipped:   %d\n", len(r.Skipped))
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  duration:  %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	if r.LastSuccess != nil {
		fmt.Fprintf(w, "  last success: %d (%s)\n", r.LastSuccess.Index, r.LastSuccess.Identity)
	}

	problems := append(append([]core.RowResult(nil), r.Failed...), r.Skipped...)
	if len(problems) == 0 {
		return
	}
	fmt.Fprintln(w)
	printResults(w, problems)
}

func printResults(w io.Writer, results []core.RowResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tIDENTITY\tSTATUS\tATTEMPTS\tCHAINED\tDETAIL")
	for _, res := range results {
		chained := "-"
		if res.Chained {
			chained = string(res.Mode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			res.Index, res.Identity, res.Status, res.Attempts, chained, res.Detail)
	}
	tw.Flush()
}

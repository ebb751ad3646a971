package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/entrybatch/pkg/config"
	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/storage"
)

var (
	dbFlag     string
	limitFlag  int
	statusFlag string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), limitFlag)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTATE\tSOURCE\tTOTAL\tOK\tFAILED\tSKIPPED\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.ID, r.State, r.Source, r.Total, r.Succeeded, r.Failed, r.Skipped, formatTime(r.StartedAt))
		}
		return tw.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "List the record outcomes of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		outcomes, err := store.GetRowOutcomes(cmd.Context(), run.ID, core.RowStatus(statusFlag))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s %s (%s)\n", run.ID, run.State, run.Source)
		if run.LastError != "" {
			fmt.Fprintf(out, "Last error: %s\n", run.LastError)
		}
		fmt.Fprintln(out)

		results := make([]core.RowResult, len(outcomes))
		for i, o := range outcomes {
			results[i] = o.Result()
		}
		printResults(out, results)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{runsCmd, showCmd} {
		c.Flags().StringVar(&dbFlag, "db", "", "SQLite database (defaults to storage.path from the configuration)")
	}
	runsCmd.Flags().IntVarP(&limitFlag, "limit", "n", storage.DefaultListLimit, "Maximum number of runs")
	showCmd.Flags().StringVar(&statusFlag, "status", "", "Only outcomes with this status: succeeded, failed, skipped")
}

// openHistory opens the database named by --db, falling back to the
// configured storage path. The configuration file is optional here.
func openHistory(cmd *cobra.Command) (*storage.GormStorage, error) {
	path := dbFlag
	if path == "" {
		path = config.Default().Storage.Path
		if _, err := os.Stat(configFlag); err == nil {
			cfg, err := config.Load(configFlag, envFileFlag)
			if err != nil {
				return nil, err
			}
			path = cfg.Storage.Path
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no database: set storage.path or pass --db")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return storage.OpenSQLite(cmd.Context(), path, storage.WithPoolConfig(storage.ReportingPoolConfig()))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Command entrybatch replays a spreadsheet of records as entries in a
// browser-driven form workflow.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFlag   string
	envFileFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "entrybatch",
	Short: "Replay spreadsheet records as form entries",
	Long: `entrybatch reads an ordered list of records and creates one entry per
record in a remote form workflow through a Chrome session. Consecutive records
sharing the same chain keys are appended to the entry just saved instead of
starting a new one.

Examples:
  entrybatch run --config entrybatch.yaml --records dockets.csv
  entrybatch run -c entrybatch.yaml -r dockets.csv --on-failure abort
  entrybatch run -c entrybatch.yaml -r dockets.csv --cron "0 7 * * 1-5"
  entrybatch runs
  entrybatch show 6f1c0a9e-...`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(logLevelFlag, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "entrybatch.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Environment file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides the configuration)")

	rootCmd.AddCommand(runCmd, runsCmd, showCmd)
}

func main() {
	initLogging("info", nil)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("interrupted")
			os.Exit(130)
		}
		log.Error().Err(err).Msg("entrybatch failed")
		os.Exit(1)
	}
}

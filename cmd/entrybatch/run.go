package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jdziat/entrybatch/pkg/browser"
	"github.com/jdziat/entrybatch/pkg/config"
	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/metrics"
	"github.com/jdziat/entrybatch/pkg/observe"
	"github.com/jdziat/entrybatch/pkg/orchestrator"
	"github.com/jdziat/entrybatch/pkg/schedule"
	"github.com/jdziat/entrybatch/pkg/source"
	"github.com/jdziat/entrybatch/pkg/storage"
)

var (
	recordsFlag     string
	everyFlag       time.Duration
	cronFlag        string
	onFailureFlag   string
	metricsAddrFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a batch of records",
	Long: `run connects to Chrome, replays every record of --records and prints a
summary. With --every or --cron the batch is replayed at each activation until
interrupted.

When a record fails, the run pauses. --on-failure decides what happens next:
  prompt    ask on the terminal whether to resume or abort (default)
  abort     stop the run
  continue  do not pause at all`,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&recordsFlag, "records", "r", "", "Record workbook (.xlsx) or CSV export")
	runCmd.Flags().DurationVar(&everyFlag, "every", 0, "Replay the batch at this interval")
	runCmd.Flags().StringVar(&cronFlag, "cron", "", "Replay the batch on this cron schedule")
	runCmd.Flags().StringVar(&onFailureFlag, "on-failure", onFailurePrompt, "What to do when a record fails: prompt, abort, continue")
	runCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides the configuration)")

	_ = runCmd.MarkFlagRequired("records")
	runCmd.MarkFlagsMutuallyExclusive("every", "cron")
}

// batchEnv is everything shared by the runs of one invocation.
type batchEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	records string
	port    core.ActionPort
	store   *storage.GormStorage
	metrics *metrics.Observer

	onFailure string
	stdin     *answers
	out       io.Writer
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := validOnFailure(onFailureFlag); err != nil {
		return err
	}
	sched, err := scheduleFromFlags()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFlag, envFileFlag)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	env := &batchEnv{
		cfg:       cfg,
		logger:    initLogging(level, nil),
		records:   recordsFlag,
		onFailure: failurePolicy(onFailureFlag, cmd.Flags().Changed("on-failure"), cfg.Run.PauseOnFailure),
		stdin:     newAnswers(os.Stdin),
		out:       os.Stdout,
	}
	if cmd.Flags().Changed("on-failure") && !cfg.Run.PauseOnFailure && onFailureFlag != onFailureContinue {
		log.Info().Str("on_failure", onFailureFlag).Msg("--on-failure overrides run.pause_on_failure: false")
	}

	if cfg.Storage.Path != "" {
		store, err := storage.OpenSQLite(ctx, cfg.Storage.Path, cfg.Storage.PoolOptions()...)
		if err != nil {
			return err
		}
		defer store.Close()
		env.store = store
	}

	addr := cfg.Metrics.Addr
	if metricsAddrFlag != "" {
		addr = metricsAddrFlag
	}
	if addr != "" {
		env.metrics = metrics.New(cfg.Metrics.Runtime)
		shutdown := serveMetrics(addr, env.metrics.Handler())
		defer shutdown()
	}

	port, err := browser.Connect(ctx, cfg.Browser, env.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Warn().Err(err).Msg("closing browser")
		}
	}()
	env.port = port

	if sched == nil {
		return env.runOnce(ctx)
	}

	log.Info().Str("schedule", describeSchedule()).Msg("scheduled mode, waiting for next activation")
	return schedule.Loop(ctx, sched, env.runOnce)
}

func scheduleFromFlags() (schedule.Schedule, error) {
	switch {
	case everyFlag > 0:
		return schedule.Every(everyFlag), nil
	case cronFlag != "":
		return schedule.ParseCron(cronFlag)
	case everyFlag < 0:
		return nil, errors.New("--every must be positive")
	}
	return nil, nil
}

// runOnce reads the records afresh and processes them, handling pauses per
// --on-failure.
func (env *batchEnv) runOnce(ctx context.Context) error {
	src, err := source.Open(env.records, env.cfg.Source)
	if err != nil {
		return err
	}

	opts, err := env.cfg.Run.Options()
	if err != nil {
		return err
	}
	opts = append(opts,
		orchestrator.WithLogger(env.logger),
		orchestrator.WithObserver(observe.NewLogObserver(env.logger)),
		orchestrator.PauseOnFailure(env.onFailure != onFailureContinue),
	)
	if env.store != nil {
		opts = append(opts, orchestrator.WithObserver(storage.NewRecorder(env.store,
			storage.SourceName(filepath.Base(env.records)),
			storage.RecorderLogger(env.logger))))
	}
	if env.metrics != nil {
		opts = append(opts, orchestrator.WithObserver(env.metrics))
	}

	o, err := orchestrator.New(src, env.port, opts...)
	if err != nil {
		return err
	}

	log.Info().Str("run_id", o.RunID()).Str("records", env.records).Int("count", src.Count()).Msg("starting run")
	report, err := o.Run(ctx)
	if err != nil {
		return err
	}
	report, err = settlePauses(ctx, o, report, env.onFailure, env.stdin, env.out)
	if report != nil {
		printSummary(env.out, report)
	}
	if err != nil {
		return err
	}
	if report.Cancelled {
		return ctx.Err()
	}
	return nil
}

// settlePauses resumes or aborts a paused run until it is no longer paused.
// If ctx ends while the operator is being asked, the run is aborted and
// ctx.Err() returned with the final report.
func settlePauses(ctx context.Context, o *orchestrator.Orchestrator, report *core.BatchReport,
	policy string, in *answers, out io.Writer) (*core.BatchReport, error) {
	var err error
	for report.State == core.StatePaused {
		resume, perr := shouldResume(ctx, policy, report.Paused, in, out)
		if perr != nil || !resume {
			if err := o.Abort(); err != nil {
				return report, err
			}
			return o.Report(), perr
		}
		if report, err = o.Resume(ctx); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// serveMetrics serves h on addr until the returned function is called.
func serveMetrics(addr string, h http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics on /metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}
}

func describeSchedule() string {
	if cronFlag != "" {
		return fmt.Sprintf("cron %q", cronFlag)
	}
	return fmt.Sprintf("every %s", everyFlag)
}

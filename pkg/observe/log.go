package observe

import (
	"context"
	"log/slog"

	"github.com/jdziat/entrybatch/pkg/core"
)

// LogObserver writes run events as structured log records.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnAttempt(ctx context.Context, e *core.AttemptEvent) {
	level := slog.LevelDebug
	args := []any{
		"run_id", e.RunID,
		"index", e.Index,
		"identity", e.Identity,
		"attempt", e.Attempt,
		"max_attempts", e.MaxAttempts,
		"outcome", e.Outcome,
	}
	if e.Chained {
		args = append(args, "mode", e.Mode)
	}
	switch e.Outcome {
	case core.OutcomeTransient:
		level = slog.LevelWarn
		args = append(args, "error", e.Error)
	case core.OutcomeFatal:
		level = slog.LevelError
		args = append(args, "error", e.Error)
	}
	o.logger.Log(ctx, level, "attempt finished", args...)
}

func (o *LogObserver) OnRowResult(ctx context.Context, runID string, res core.RowResult) {
	level := slog.LevelInfo
	switch res.Status {
	case core.StatusFailed:
		level = slog.LevelError
	case core.StatusSkipped:
		level = slog.LevelWarn
	}
	o.logger.Log(ctx, level, "record "+string(res.Status),
		"run_id", runID,
		"index", res.Index,
		"identity", res.Identity,
		"attempts", res.Attempts,
		"chained", res.Chained,
		"detail", res.Detail)
}

func (o *LogObserver) OnChainEvent(ctx context.Context, e *core.ChainEvent) {
	switch e.Kind {
	case core.ChainStrategySwitched:
		o.logger.WarnContext(ctx, "chain strategy switched",
			"run_id", e.RunID, "start", e.StartIndex, "index", e.Index,
			"from", e.From, "to", e.To, "reason", e.Reason)
	case core.ChainStopped:
		o.logger.InfoContext(ctx, "chain stopped",
			"run_id", e.RunID, "start", e.StartIndex, "last", e.Index, "reason", e.Reason)
	default:
		o.logger.InfoContext(ctx, "chain started",
			"run_id", e.RunID, "start", e.StartIndex, "mode", e.To)
	}
}

func (o *LogObserver) OnStateChange(ctx context.Context, e *core.StateChange) {
	args := []any{"run_id", e.RunID, "from", e.From, "to", e.To}
	if r := e.Report; r != nil {
		args = append(args,
			"succeeded", len(r.Succeeded),
			"failed", len(r.Failed),
			"skipped", len(r.Skipped),
			"total", r.Total)
		if e.To == core.StatePaused && r.Paused != nil {
			args = append(args, "paused_index", r.Paused.Index, "paused_identity", r.Paused.Identity)
		}
	}
	o.logger.InfoContext(ctx, "run state changed", args...)
}

var (
	_ core.Observer          = (*LogObserver)(nil)
	_ core.LifecycleObserver = (*LogObserver)(nil)
)

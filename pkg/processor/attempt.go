package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
	intctx "github.com/jdziat/entrybatch/pkg/internal/context"
	"github.com/jdziat/entrybatch/pkg/security"
)

type attempt struct {
	rec     *core.Record
	number  int
	chained bool
	mode    core.StrategyMode
	steps   []core.Step
}

// portContext detaches ctx from cancellation so an in-flight ActionPort call
// always runs to completion, and attaches the record context.
func (a *attempt) portContext(ctx context.Context) context.Context {
	return intctx.WithRecordContext(context.WithoutCancel(ctx), &intctx.RecordContext{
		RunID:   intctx.GetRunID(ctx),
		Record:  a.rec,
		Attempt: a.number,
		Chained: a.chained,
		Mode:    a.mode,
	})
}

// run executes the steps in order, checking cancellation before each one.
func (a *attempt) run(ctx context.Context, port core.ActionPort) error {
	portCtx := a.portContext(ctx)
	for _, step := range a.steps {
		if ctx.Err() != nil {
			return core.ErrCancelled
		}
		if err := core.Invoke(portCtx, port, step, a.rec); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

func (a *attempt) event(ctx context.Context, maxAttempts int, outcome core.Outcome, err error) *core.AttemptEvent {
	return &core.AttemptEvent{
		RunID:       intctx.GetRunID(ctx),
		Index:       a.rec.Index,
		Identity:    a.rec.Label(),
		Attempt:     a.number,
		MaxAttempts: maxAttempts,
		Chained:     a.chained,
		Mode:        a.mode,
		Outcome:     outcome,
		Error:       err,
		Timestamp:   time.Now(),
	}
}

// recoverSession restores the surface after a transient failure. Failures are
// logged and otherwise ignored; the next attempt surfaces any lasting problem.
func recoverSession(ctx context.Context, cfg Config, port core.ActionPort, a *attempt) {
	if err := port.RecoverSession(a.portContext(ctx)); err != nil {
		cfg.Logger.Warn("recover session failed",
			"run_id", intctx.GetRunID(ctx),
			"index", a.rec.Index,
			"attempt", a.number,
			"error", err)
	}
}

func exhaustedDetail(attempts int) string {
	return fmt.Sprintf("transient failure after %d attempts", attempts)
}

func errorDetail(err error) string {
	return security.SanitizeErrorMessage(err.Error())
}

func newResult(rec *core.Record, chained bool, mode core.StrategyMode) core.RowResult {
	return core.RowResult{
		Index:    rec.Index,
		Identity: rec.Label(),
		Chained:  chained,
		Mode:     mode,
	}
}

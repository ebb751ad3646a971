package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/retry"
)

// Recorder is an observer that persists run summaries and row outcomes.
// Write failures are retried, then logged; they never stop the run.
type Recorder struct {
	store  core.Storage
	source string
	retry  retry.Policy
	logger *slog.Logger

	mu      sync.Mutex
	created map[string]bool
	errs    int
}

// RecorderOption configures a Recorder.
type RecorderOption interface {
	applyRecorder(*Recorder)
}

type recorderOptionFunc func(*Recorder)

func (f recorderOptionFunc) applyRecorder(r *Recorder) { f(r) }

// SourceName labels stored runs with the name of their record source.
func SourceName(name string) RecorderOption {
	return recorderOptionFunc(func(r *Recorder) {
		r.source = name
	})
}

// WriteRetry sets the retry policy for storage writes.
func WriteRetry(p retry.Policy) RecorderOption {
	return recorderOptionFunc(func(r *Recorder) {
		r.retry = p
	})
}

// RecorderLogger sets the logger for write failures.
func RecorderLogger(l *slog.Logger) RecorderOption {
	return recorderOptionFunc(func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	})
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store core.Storage, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
		retry: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
		},
		logger:  slog.Default(),
		created: make(map[string]bool),
	}
	for _, opt := range opts {
		opt.applyRecorder(r)
	}
	return r
}

// Failures returns the number of writes that failed after retries.
func (r *Recorder) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs
}

// OnAttempt is a no-op; attempts are not persisted.
func (r *Recorder) OnAttempt(context.Context, *core.AttemptEvent) {}

// OnChainEvent is a no-op; chain decisions are not persisted.
func (r *Recorder) OnChainEvent(context.Context, *core.ChainEvent) {}

// OnRowResult persists the final outcome of a record.
func (r *Recorder) OnRowResult(ctx context.Context, runID string, res core.RowResult) {
	outcome := &core.RowOutcome{
		RunID:    runID,
		RowIndex: res.Index,
		Identity: res.Identity,
		Status:   res.Status,
		Detail:   res.Detail,
		Attempts: res.Attempts,
		Chained:  res.Chained,
		Mode:     res.Mode,
	}
	r.write(ctx, "save row outcome", runID, func(ctx context.Context) error {
		return r.store.SaveRowOutcome(ctx, outcome)
	})
}

// OnStateChange creates the run row on first sight and updates its state after.
func (r *Recorder) OnStateChange(ctx context.Context, e *core.StateChange) {
	r.mu.Lock()
	created := r.created[e.RunID]
	r.created[e.RunID] = true
	r.mu.Unlock()

	if !created {
		run := &core.Run{ID: e.RunID, Source: r.source, State: e.To}
		if e.Report != nil {
			run.Total = e.Report.Total
			if !e.Report.StartedAt.IsZero() {
				started := e.Report.StartedAt
				run.StartedAt = &started
			}
		}
		r.write(ctx, "create run", e.RunID, func(ctx context.Context) error {
			return r.store.CreateRun(ctx, run)
		})
	}

	r.write(ctx, "update run state", e.RunID, func(ctx context.Context) error {
		return r.store.UpdateRunState(ctx, e.RunID, e.To, e.Report)
	})
}

// write runs fn detached from run cancellation so the final state of a
// cancelled run is still stored.
func (r *Recorder) write(ctx context.Context, op, runID string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	err := retry.Do(ctx, r.retry, func() error {
		return fn(ctx)
	})
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errs++
	r.mu.Unlock()
	r.logger.Error("storage write failed", "op", op, "run_id", runID, "error", err)
}

var (
	_ core.Observer          = (*Recorder)(nil)
	_ core.LifecycleObserver = (*Recorder)(nil)
)

package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/entrybatch/pkg/core"
	intctx "github.com/jdziat/entrybatch/pkg/internal/context"
	"github.com/jdziat/entrybatch/pkg/processor"
	"github.com/jdziat/entrybatch/pkg/retry"
)

// Orchestrator runs one batch over a RecordSource.
type Orchestrator struct {
	src      core.RecordSource
	port     core.ActionPort
	config   Config
	logger   *slog.Logger
	observer core.Observers
	row      *processor.RowProcessor
	chain    *processor.ChainProcessor

	mu      sync.Mutex
	state   core.RunState
	report  *core.BatchReport
	next    int // index of the next record to process
	running bool
}

// New creates an orchestrator for src and port.
func New(src core.RecordSource, port core.ActionPort, opts ...Option) (*Orchestrator, error) {
	if src == nil {
		return nil, core.ErrNilSource
	}
	if port == nil {
		return nil, core.ErrNilPort
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt.ApplyOrchestrator(&config)
	}
	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if len(config.Processor.Strategies) == 0 {
		config.Processor.Strategies = processor.DefaultStrategies()
	}
	if err := config.Processor.Strategies.Validate(); err != nil {
		return nil, err
	}

	observer := core.Observers(append([]core.Observer(nil), config.Observers...))
	config.Processor.Observer = observer
	if config.Processor.Logger == nil {
		config.Processor.Logger = config.Logger
	}

	return &Orchestrator{
		src:      src,
		port:     port,
		config:   config,
		logger:   config.Logger,
		observer: observer,
		row:      processor.NewRowProcessorFromConfig(config.Processor),
		chain:    processor.NewChainProcessorFromConfig(config.Processor),
		state:    core.StateIdle,
		report:   core.NewBatchReport(config.RunID, src.Count()),
	}, nil
}

// RunID returns the identifier of this run.
func (o *Orchestrator) RunID() string {
	return o.config.RunID
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() core.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Report returns a snapshot of the report.
func (o *Orchestrator) Report() *core.BatchReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report.Clone()
}

// Run processes the batch from the first record. It returns when the batch
// completes, when ctx is cancelled, or when a Failed result pauses the run.
// The returned report is a snapshot; its State tells which of these happened.
func (o *Orchestrator) Run(ctx context.Context) (*core.BatchReport, error) {
	o.mu.Lock()
	if o.running || o.state != core.StateIdle {
		defer o.mu.Unlock()
		if o.state.Terminal() {
			return nil, core.ErrFinished
		}
		return nil, core.ErrAlreadyStarted
	}
	o.running = true
	o.report.StartedAt = time.Now()
	o.mu.Unlock()
	defer o.release()

	ctx = intctx.WithRunID(ctx, o.config.RunID)
	o.transition(ctx, core.StateRunning)
	return o.loop(ctx), nil
}

// Resume continues a paused run with the record after the one that failed.
func (o *Orchestrator) Resume(ctx context.Context) (*core.BatchReport, error) {
	o.mu.Lock()
	switch {
	case o.running:
		o.mu.Unlock()
		return nil, core.ErrAlreadyStarted
	case o.state.Terminal():
		o.mu.Unlock()
		return nil, core.ErrFinished
	case o.state != core.StatePaused:
		o.mu.Unlock()
		return nil, core.ErrNotPaused
	}
	o.running = true
	o.report.Paused = nil
	o.mu.Unlock()
	defer o.release()

	ctx = intctx.WithRunID(ctx, o.config.RunID)
	o.logger.Info("resuming run", "run_id", o.config.RunID, "next_index", o.next)
	o.transition(ctx, core.StateRunning)
	return o.loop(ctx), nil
}

// Abort ends a paused or not yet started run.
func (o *Orchestrator) Abort() error {
	o.mu.Lock()
	switch {
	case o.running:
		o.mu.Unlock()
		return core.ErrAlreadyStarted
	case o.state.Terminal():
		o.mu.Unlock()
		return core.ErrFinished
	}
	o.report.Paused = nil
	o.report.FinishedAt = time.Now()
	o.mu.Unlock()

	ctx := intctx.WithRunID(context.Background(), o.config.RunID)
	o.transition(ctx, core.StateAborted)
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

func (o *Orchestrator) loop(ctx context.Context) *core.BatchReport {
	count := o.src.Count()

	for o.next < count {
		if ctx.Err() != nil {
			return o.finish(ctx, core.StateCancelled)
		}

		i := o.next
		rec, ok := o.src.Get(i)
		if !ok {
			o.next++
			continue
		}

		res := o.row.Process(ctx, o.port, rec)
		if res.Status == core.StatusCancelled {
			return o.finish(ctx, core.StateCancelled)
		}
		o.add(ctx, res)

		var failure *core.RowResult
		if res.Status == core.StatusFailed {
			failure = &res
		}

		if res.Status == core.StatusSucceeded && i+1 < count && o.src.ChainsWith(i) && ctx.Err() == nil {
			chained := o.chain.ProcessChain(ctx, o.src, o.port, i)
			for _, r := range chained.Results {
				o.add(ctx, r)
				if r.Status == core.StatusFailed {
					failure = &r
				}
			}
			o.next = chained.Last
			if chained.Cancelled {
				o.next++
				return o.finish(ctx, core.StateCancelled)
			}
		}
		o.next++

		if failure != nil && o.config.PauseOnFailure {
			return o.pause(ctx, *failure)
		}

		if o.next < count {
			if ctx.Err() != nil {
				return o.finish(ctx, core.StateCancelled)
			}
			if err := retry.Sleep(ctx, o.config.RecordDelay); err != nil {
				return o.finish(ctx, core.StateCancelled)
			}
		}
	}

	return o.finish(ctx, core.StateCompleted)
}

func (o *Orchestrator) add(ctx context.Context, res core.RowResult) {
	o.mu.Lock()
	added := o.report.Add(res)
	o.mu.Unlock()
	if added {
		o.observer.OnRowResult(ctx, o.config.RunID, res)
	}
}

func (o *Orchestrator) pause(ctx context.Context, res core.RowResult) *core.BatchReport {
	o.mu.Lock()
	o.report.Paused = &res
	o.mu.Unlock()

	o.logger.Warn("run paused on failure",
		"run_id", o.config.RunID,
		"index", res.Index,
		"identity", res.Identity,
		"detail", res.Detail)
	return o.transition(ctx, core.StatePaused)
}

func (o *Orchestrator) finish(ctx context.Context, state core.RunState) *core.BatchReport {
	o.mu.Lock()
	o.report.Cancelled = state == core.StateCancelled
	o.report.FinishedAt = time.Now()
	o.mu.Unlock()
	return o.transition(ctx, state)
}

// transition moves to state, notifies observers and returns a snapshot.
func (o *Orchestrator) transition(ctx context.Context, state core.RunState) *core.BatchReport {
	o.mu.Lock()
	from := o.state
	o.state = state
	o.report.State = state
	snapshot := o.report.Clone()
	o.mu.Unlock()

	o.observer.OnStateChange(ctx, &core.StateChange{
		RunID:     o.config.RunID,
		From:      from,
		To:        state,
		Report:    snapshot,
		Timestamp: time.Now(),
	})
	return snapshot
}

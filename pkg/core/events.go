package core

import (
	"context"
	"time"
)

// Event is the interface for all run events.
type Event interface {
	eventMarker()
}

// AttemptEvent is emitted after every attempt on a record.
type AttemptEvent struct {
	RunID       string
	Index       int
	Identity    string
	Attempt     int
	MaxAttempts int
	Chained     bool
	Mode        StrategyMode
	Outcome     Outcome
	Error       error
	Timestamp   time.Time
}

func (*AttemptEvent) eventMarker() {}

// RowFinished is emitted when a result is added to the report.
type RowFinished struct {
	RunID     string
	Result    RowResult
	Timestamp time.Time
}

func (*RowFinished) eventMarker() {}

// ChainEventKind distinguishes chain events.
type ChainEventKind string

const (
	ChainStarted          ChainEventKind = "started"
	ChainStrategySwitched ChainEventKind = "strategy_switched"
	ChainStopped          ChainEventKind = "stopped"
)

// ChainEvent is emitted when a chain starts, switches strategy or stops.
type ChainEvent struct {
	RunID      string
	Kind       ChainEventKind
	StartIndex int
	Index      int
	From       StrategyMode
	To         StrategyMode
	Reason     string
	Timestamp  time.Time
}

func (*ChainEvent) eventMarker() {}

// StateChange is emitted on every run lifecycle transition.
type StateChange struct {
	RunID     string
	From      RunState
	To        RunState
	Report    *BatchReport // snapshot at the time of the transition
	Timestamp time.Time
}

func (*StateChange) eventMarker() {}

// Observer receives run events at well-defined points. Implementations must
// not block for long; the engine calls them synchronously.
type Observer interface {
	OnAttempt(ctx context.Context, e *AttemptEvent)
	OnRowResult(ctx context.Context, runID string, res RowResult)
	OnChainEvent(ctx context.Context, e *ChainEvent)
}

// LifecycleObserver is implemented by observers that also track run state.
type LifecycleObserver interface {
	OnStateChange(ctx context.Context, e *StateChange)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnAttempt(context.Context, *AttemptEvent)       {}
func (NopObserver) OnRowResult(context.Context, string, RowResult) {}
func (NopObserver) OnChainEvent(context.Context, *ChainEvent)      {}
func (NopObserver) OnStateChange(context.Context, *StateChange)    {}

// Observers fans events out to every member in order.
type Observers []Observer

func (os Observers) OnAttempt(ctx context.Context, e *AttemptEvent) {
	for _, o := range os {
		o.OnAttempt(ctx, e)
	}
}

func (os Observers) OnRowResult(ctx context.Context, runID string, res RowResult) {
	for _, o := range os {
		o.OnRowResult(ctx, runID, res)
	}
}

func (os Observers) OnChainEvent(ctx context.Context, e *ChainEvent) {
	for _, o := range os {
		o.OnChainEvent(ctx, e)
	}
}

// OnStateChange forwards to members implementing LifecycleObserver.
func (os Observers) OnStateChange(ctx context.Context, e *StateChange) {
	for _, o := range os {
		if lo, ok := o.(LifecycleObserver); ok {
			lo.OnStateChange(ctx, e)
		}
	}
}

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents_ImplementEvent(t *testing.T) {
	var _ Event = &AttemptEvent{}
	var _ Event = &RowFinished{}
	var _ Event = &ChainEvent{}
	var _ Event = &StateChange{}
}

type countingObserver struct {
	NopObserver
	attempts int
	rows     int
	chains   int
	states   int
}

func (c *countingObserver) OnAttempt(context.Context, *AttemptEvent)       { c.attempts++ }
func (c *countingObserver) OnRowResult(context.Context, string, RowResult) { c.rows++ }
func (c *countingObserver) OnChainEvent(context.Context, *ChainEvent)      { c.chains++ }
func (c *countingObserver) OnStateChange(context.Context, *StateChange)    { c.states++ }

type attemptsOnly struct {
	NopObserver
	attempts int
}

func (a *attemptsOnly) OnAttempt(context.Context, *AttemptEvent) { a.attempts++ }

func TestObservers_FanOut(t *testing.T) {
	ctx := context.Background()
	first := &countingObserver{}
	second := &countingObserver{}
	obs := Observers{first, second}

	obs.OnAttempt(ctx, &AttemptEvent{})
	obs.OnRowResult(ctx, "run", RowResult{})
	obs.OnChainEvent(ctx, &ChainEvent{})
	obs.OnStateChange(ctx, &StateChange{})

	for _, c := range []*countingObserver{first, second} {
		assert.Equal(t, 1, c.attempts)
		assert.Equal(t, 1, c.rows)
		assert.Equal(t, 1, c.chains)
		assert.Equal(t, 1, c.states)
	}
}

func TestObservers_StateChangeOnlyForLifecycleObservers(t *testing.T) {
	ctx := context.Background()
	plain := &attemptsOnly{}
	obs := Observers{plain}

	assert.NotPanics(t, func() {
		obs.OnStateChange(ctx, &StateChange{From: StateIdle, To: StateRunning})
	})
	obs.OnAttempt(ctx, &AttemptEvent{})
	assert.Equal(t, 1, plain.attempts)
}

package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch/pkg/core"
)

func TestHub_HooksCalledInOrder(t *testing.T) {
	h := NewHub(10)
	var calls []string

	h.HookAttempt(func(context.Context, *core.AttemptEvent) { calls = append(calls, "attempt-1") })
	h.HookAttempt(func(context.Context, *core.AttemptEvent) { calls = append(calls, "attempt-2") })
	h.HookRowResult(func(_ context.Context, runID string, res core.RowResult) {
		calls = append(calls, "row-"+runID+"-"+string(res.Status))
	})
	h.HookChainEvent(func(_ context.Context, e *core.ChainEvent) { calls = append(calls, "chain-"+string(e.Kind)) })
	h.HookStateChange(func(_ context.Context, e *core.StateChange) { calls = append(calls, "state-"+string(e.To)) })

	ctx := context.Background()
	h.OnAttempt(ctx, &core.AttemptEvent{})
	h.OnRowResult(ctx, "run-1", core.RowResult{Status: core.StatusSkipped})
	h.OnChainEvent(ctx, &core.ChainEvent{Kind: core.ChainStarted})
	h.OnStateChange(ctx, &core.StateChange{To: core.StatePaused})

	assert.Equal(t, []string{
		"attempt-1", "attempt-2", "row-run-1-skipped", "chain-started", "state-paused",
	}, calls)
}

func TestHub_Events(t *testing.T) {
	h := NewHub(10)
	ch := h.Events()
	require.NotNil(t, ch)

	h.OnRowResult(context.Background(), "run-1", core.RowResult{Index: 3, Status: core.StatusSucceeded})

	select {
	case received := <-ch:
		rf, ok := received.(*core.RowFinished)
		require.True(t, ok)
		assert.Equal(t, "run-1", rf.RunID)
		assert.Equal(t, 3, rf.Result.Index)
		assert.False(t, rf.Timestamp.IsZero())
	default:
		t.Fatal("expected to receive event")
	}
}

func TestHub_Emit_DropsWhenFull(t *testing.T) {
	h := NewHub(5)
	ch := h.Events()

	for i := 0; i < 5; i++ {
		h.Emit(&core.AttemptEvent{Attempt: i})
	}

	// This should not block - it should drop
	h.Emit(&core.AttemptEvent{Attempt: 99})

	assert.Len(t, ch, 5)
}

func TestHub_Unsubscribe_StopsDelivery(t *testing.T) {
	h := NewHub(0)
	ch := h.Events()

	h.Emit(&core.ChainEvent{Kind: core.ChainStarted})
	select {
	case e := <-ch:
		assert.Equal(t, core.ChainStarted, e.(*core.ChainEvent).Kind)
	default:
		t.Fatal("expected event before unsubscribe")
	}

	h.Unsubscribe(ch)

	h.Emit(&core.ChainEvent{Kind: core.ChainStopped})
	select {
	case <-ch:
		t.Fatal("should not receive events after unsubscribe")
	default:
	}
}

func TestHub_Unsubscribe_UnknownChannel_IsNoop(t *testing.T) {
	h := NewHub(0)
	foreign := make(chan core.Event, 1)

	h.Unsubscribe(foreign)
}

func TestHub_Unsubscribe_ConcurrentWithEmit(t *testing.T) {
	h := NewHub(0)

	const subscribers = 10
	channels := make([]<-chan core.Event, subscribers)
	for i := range channels {
		channels[i] = h.Events()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.OnAttempt(context.Background(), &core.AttemptEvent{Attempt: i})
		}
	}()

	for _, ch := range channels {
		h.Unsubscribe(ch)
	}
	<-done
}

package observe

import (
	"context"
	"sync"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
)

// Hub dispatches run events to registered hooks and to Events subscribers.
// The zero value is not usable; create one with NewHub.
type Hub struct {
	mu sync.RWMutex

	// Hooks
	onAttempt     []func(context.Context, *core.AttemptEvent)
	onRowResult   []func(context.Context, string, core.RowResult)
	onChainEvent  []func(context.Context, *core.ChainEvent)
	onStateChange []func(context.Context, *core.StateChange)

	// Event stream
	eventSubs  []chan core.Event
	bufferSize int
}

// NewHub creates a hub whose subscriber channels buffer bufferSize events.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Hub{bufferSize: bufferSize}
}

// HookAttempt registers a callback run after every attempt.
func (h *Hub) HookAttempt(fn func(context.Context, *core.AttemptEvent)) {
	h.mu.Lock()
	h.onAttempt = append(h.onAttempt, fn)
	h.mu.Unlock()
}

// HookRowResult registers a callback run when a result enters the report.
func (h *Hub) HookRowResult(fn func(context.Context, string, core.RowResult)) {
	h.mu.Lock()
	h.onRowResult = append(h.onRowResult, fn)
	h.mu.Unlock()
}

// HookChainEvent registers a callback for chain start, switch and stop.
func (h *Hub) HookChainEvent(fn func(context.Context, *core.ChainEvent)) {
	h.mu.Lock()
	h.onChainEvent = append(h.onChainEvent, fn)
	h.mu.Unlock()
}

// HookStateChange registers a callback for run lifecycle transitions.
func (h *Hub) HookStateChange(fn func(context.Context, *core.StateChange)) {
	h.mu.Lock()
	h.onStateChange = append(h.onStateChange, fn)
	h.mu.Unlock()
}

// Events returns a channel for receiving run events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (h *Hub) Events() <-chan core.Event {
	ch := make(chan core.Event, h.bufferSize)
	h.mu.Lock()
	h.eventSubs = append(h.eventSubs, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed. After Unsubscribe returns, no further events
// are sent to it.
func (h *Hub) Unsubscribe(ch <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.eventSubs {
		if sub == ch {
			h.eventSubs = append(h.eventSubs[:i], h.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit sends an event to all subscribers.
func (h *Hub) Emit(e core.Event) {
	h.mu.RLock()
	subs := make([]chan core.Event, len(h.eventSubs))
	copy(subs, h.eventSubs)
	h.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full so a slow consumer never stalls the run
		}
	}
}

// OnAttempt runs the attempt hooks, then emits the event to subscribers.
func (h *Hub) OnAttempt(ctx context.Context, e *core.AttemptEvent) {
	h.mu.RLock()
	hooks := make([]func(context.Context, *core.AttemptEvent), len(h.onAttempt))
	copy(hooks, h.onAttempt)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, e)
	}
	h.Emit(e)
}

// OnRowResult runs the row hooks, then emits a RowFinished event.
func (h *Hub) OnRowResult(ctx context.Context, runID string, res core.RowResult) {
	h.mu.RLock()
	hooks := make([]func(context.Context, string, core.RowResult), len(h.onRowResult))
	copy(hooks, h.onRowResult)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, runID, res)
	}
	h.Emit(&core.RowFinished{RunID: runID, Result: res, Timestamp: time.Now()})
}

// OnChainEvent runs the chain hooks, then emits the event to subscribers.
func (h *Hub) OnChainEvent(ctx context.Context, e *core.ChainEvent) {
	h.mu.RLock()
	hooks := make([]func(context.Context, *core.ChainEvent), len(h.onChainEvent))
	copy(hooks, h.onChainEvent)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, e)
	}
	h.Emit(e)
}

// OnStateChange runs the state hooks, then emits the event to subscribers.
func (h *Hub) OnStateChange(ctx context.Context, e *core.StateChange) {
	h.mu.RLock()
	hooks := make([]func(context.Context, *core.StateChange), len(h.onStateChange))
	copy(hooks, h.onStateChange)
	h.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, e)
	}
	h.Emit(e)
}

var (
	_ core.Observer          = (*Hub)(nil)
	_ core.LifecycleObserver = (*Hub)(nil)
)

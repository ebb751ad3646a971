package processor

import (
	"context"
	"sync"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/retry"
)

// fastPolicy retries without waiting.
func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts}
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []core.AttemptEvent
	results  []core.RowResult
	chain    []core.ChainEvent
}

func (o *recordingObserver) OnAttempt(_ context.Context, e *core.AttemptEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, *e)
}

func (o *recordingObserver) OnRowResult(_ context.Context, _ string, res core.RowResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

func (o *recordingObserver) OnChainEvent(_ context.Context, e *core.ChainEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chain = append(o.chain, *e)
}

func (o *recordingObserver) chainKinds() []core.ChainEventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	var kinds []core.ChainEventKind
	for _, e := range o.chain {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

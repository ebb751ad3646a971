package processor

import (
	"context"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
	intctx "github.com/jdziat/entrybatch/pkg/internal/context"
)

// ChainResult is the outcome of one chain invocation.
type ChainResult struct {
	// Last is the last index whose result was recorded, or the start index
	// when no member was recorded.
	Last int
	// Results holds one classified result per recorded member, in order.
	Results []core.RowResult
	// Cancelled is set when the chain stopped on cancellation.
	Cancelled bool
	// Mode is the strategy mode in effect when the chain stopped.
	Mode core.StrategyMode
}

// ChainProcessor appends records that chain with an entry just created.
type ChainProcessor struct {
	cfg Config
}

// NewChainProcessor creates a chain processor.
func NewChainProcessor(opts ...Option) *ChainProcessor {
	return NewChainProcessorFromConfig(NewConfig(opts...))
}

// NewChainProcessorFromConfig creates a chain processor from a full config.
func NewChainProcessorFromConfig(cfg Config) *ChainProcessor {
	return &ChainProcessor{cfg: cfg.normalized()}
}

// ProcessChain appends start+1, start+2, ... while each member succeeds and
// chains with the next. It must be called right after start succeeded.
//
// The strategy mode starts at the first entry of the table and only moves
// forward, once per transient failure, for the rest of the invocation.
func (p *ChainProcessor) ProcessChain(ctx context.Context, src core.RecordSource, port core.ActionPort, start int) ChainResult {
	mode := p.cfg.Strategies.First()
	out := ChainResult{Last: start, Mode: mode}
	if !src.ChainsWith(start) {
		return out
	}

	p.chainEvent(ctx, &core.ChainEvent{Kind: core.ChainStarted, StartIndex: start, Index: start, To: mode})
	reason := "end of chain"

	for j := start + 1; ; j++ {
		if ctx.Err() != nil {
			out.Cancelled = true
			reason = "cancelled"
			break
		}
		rec, ok := src.Get(j)
		if !ok {
			break
		}

		var res core.RowResult
		res, mode = p.member(ctx, port, rec, start, mode)
		if res.Status == core.StatusCancelled {
			out.Cancelled = true
			reason = "cancelled"
			break
		}
		out.Results = append(out.Results, res)
		out.Last = j

		if res.Status != core.StatusSucceeded {
			reason = string(res.Status)
			p.settle(ctx, port, rec, mode)
			break
		}
		if !src.ChainsWith(j) {
			break
		}
	}

	out.Mode = mode
	p.chainEvent(ctx, &core.ChainEvent{Kind: core.ChainStopped, StartIndex: start, Index: out.Last, To: mode, Reason: reason})
	return out
}

// member processes one chained record and returns the mode to continue with.
func (p *ChainProcessor) member(ctx context.Context, port core.ActionPort, rec *core.Record, start int, mode core.StrategyMode) (core.RowResult, core.StrategyMode) {
	maxAttempts := p.cfg.Retry.Attempts()
	res := newResult(rec, true, mode)

	for n := 1; ; n++ {
		steps, err := p.cfg.Strategies.Steps(mode)
		if err != nil {
			res.Status = core.StatusFailed
			res.Attempts = n
			res.Mode = mode
			res.Detail = errorDetail(err)
			return res, mode
		}
		a := &attempt{rec: rec, number: n, chained: true, mode: mode, steps: steps}
		err = a.run(ctx, port)
		outcome := core.Classify(err)
		res.Attempts = n
		res.Mode = mode
		p.cfg.Observer.OnAttempt(ctx, a.event(ctx, maxAttempts, outcome, err))

		switch outcome {
		case core.OutcomeSuccess:
			res.Status = core.StatusSucceeded
			return res, mode
		case core.OutcomeCancelled:
			res.Status = core.StatusCancelled
			return res, mode
		case core.OutcomeFatal:
			res.Status = core.StatusFailed
			res.Detail = errorDetail(err)
			return res, mode
		}

		if n >= maxAttempts {
			res.Status = core.StatusSkipped
			res.Detail = exhaustedDetail(n)
			return res, mode
		}
		if ctx.Err() != nil {
			res.Status = core.StatusCancelled
			return res, mode
		}
		recoverSession(ctx, p.cfg, port, a)
		if next, ok := p.cfg.Strategies.Next(mode); ok {
			p.chainEvent(ctx, &core.ChainEvent{
				Kind:       core.ChainStrategySwitched,
				StartIndex: start,
				Index:      rec.Index,
				From:       mode,
				To:         next,
				Reason:     errorDetail(err),
			})
			mode = next
		}
		if err := p.cfg.Retry.Wait(ctx, n); err != nil {
			res.Status = core.StatusCancelled
			return res, mode
		}
	}
}

// settle recovers the session after a chain member failed so the next fresh
// record starts from a clean surface.
func (p *ChainProcessor) settle(ctx context.Context, port core.ActionPort, rec *core.Record, mode core.StrategyMode) {
	if ctx.Err() != nil {
		return
	}
	recoverSession(ctx, p.cfg, port, &attempt{rec: rec, chained: true, mode: mode})
}

func (p *ChainProcessor) chainEvent(ctx context.Context, e *core.ChainEvent) {
	e.RunID = intctx.GetRunID(ctx)
	e.Timestamp = time.Now()
	p.cfg.Observer.OnChainEvent(ctx, e)
}

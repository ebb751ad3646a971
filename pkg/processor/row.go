package processor

import (
	"context"

	"github.com/jdziat/entrybatch/pkg/core"
)

// RowProcessor creates a fresh entry for a single record.
type RowProcessor struct {
	cfg Config
}

// NewRowProcessor creates a row processor.
func NewRowProcessor(opts ...Option) *RowProcessor {
	return NewRowProcessorFromConfig(NewConfig(opts...))
}

// NewRowProcessorFromConfig creates a row processor from a full config.
func NewRowProcessorFromConfig(cfg Config) *RowProcessor {
	return &RowProcessor{cfg: cfg.normalized()}
}

// Process runs FreshSequence for rec until it succeeds, fails fatally,
// exhausts its attempts or observes cancellation.
//
// The returned result has StatusCancelled when ctx ended before the record
// was classified.
func (p *RowProcessor) Process(ctx context.Context, port core.ActionPort, rec *core.Record) core.RowResult {
	maxAttempts := p.cfg.Retry.Attempts()
	res := newResult(rec, false, core.ModePrimary)

	for n := 1; ; n++ {
		a := &attempt{rec: rec, number: n, mode: core.ModePrimary, steps: FreshSequence}
		err := a.run(ctx, port)
		outcome := core.Classify(err)
		res.Attempts = n
		p.cfg.Observer.OnAttempt(ctx, a.event(ctx, maxAttempts, outcome, err))

		switch outcome {
		case core.OutcomeSuccess:
			res.Status = core.StatusSucceeded
			return res
		case core.OutcomeCancelled:
			res.Status = core.StatusCancelled
			return res
		case core.OutcomeFatal:
			res.Status = core.StatusFailed
			res.Detail = errorDetail(err)
			return res
		}

		if n >= maxAttempts {
			res.Status = core.StatusSkipped
			res.Detail = exhaustedDetail(n)
			return res
		}
		if ctx.Err() != nil {
			res.Status = core.StatusCancelled
			return res
		}
		recoverSession(ctx, p.cfg, port, a)
		if err := p.cfg.Retry.Wait(ctx, n); err != nil {
			res.Status = core.StatusCancelled
			return res
		}
	}
}

// Package fakeport provides a scriptable in-memory ActionPort for tests.
package fakeport

import (
	"context"
	"errors"
	"sync"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/recordctx"
)

// StepRecoverSession names RecoverSession calls in the call log.
const StepRecoverSession core.Step = "recover_session"

// ErrBlocked is the cause used by Transient.
var ErrBlocked = errors.New("element click intercepted")

// Call is one recorded ActionPort invocation.
type Call struct {
	Step    core.Step
	Index   int // -1 when no record was in context
	Attempt int
	Chained bool
	Mode    core.StrategyMode
}

type key struct {
	step  core.Step
	index int
}

// Port records every call and returns scripted errors.
type Port struct {
	mu     sync.Mutex
	calls  []Call
	script map[key][]error

	// Hook runs after a call is recorded and before its scripted error is
	// returned. A non-nil return replaces the scripted error.
	Hook func(Call) error
}

// New creates an empty port where every call succeeds.
func New() *Port {
	return &Port{script: make(map[key][]error)}
}

// Fail queues errors returned by successive calls of step for the record at
// index. A nil entry lets that call succeed.
func (p *Port) Fail(step core.Step, index int, errs ...error) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key{step, index}
	p.script[k] = append(p.script[k], errs...)
	return p
}

// Transient returns a transient error for tests.
func Transient() error {
	return core.Transient(ErrBlocked)
}

// Calls returns a copy of the call log.
func (p *Port) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Count returns how often step was called.
func (p *Port) Count(step core.Step) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Step == step {
			n++
		}
	}
	return n
}

// CountFor returns how often step was called for the record at index.
func (p *Port) CountFor(step core.Step, index int) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Step == step && c.Index == index {
			n++
		}
	}
	return n
}

// Indices returns the record index of every call to step, in call order.
func (p *Port) Indices(step core.Step) []int {
	var out []int
	for _, c := range p.Calls() {
		if c.Step == step {
			out = append(out, c.Index)
		}
	}
	return out
}

// Modes returns the mode of every chained call to step, in call order.
func (p *Port) Modes(step core.Step) []core.StrategyMode {
	var out []core.StrategyMode
	for _, c := range p.Calls() {
		if c.Step == step && c.Chained {
			out = append(out, c.Mode)
		}
	}
	return out
}

func (p *Port) call(ctx context.Context, step core.Step) error {
	c := Call{
		Step:    step,
		Index:   -1,
		Attempt: recordctx.AttemptFromContext(ctx),
		Chained: recordctx.ChainedFromContext(ctx),
		Mode:    recordctx.ModeFromContext(ctx),
	}
	if rec := recordctx.RecordFromContext(ctx); rec != nil {
		c.Index = rec.Index
	}

	p.mu.Lock()
	p.calls = append(p.calls, c)
	var err error
	k := key{step, c.Index}
	if queued := p.script[k]; len(queued) > 0 {
		err = queued[0]
		p.script[k] = queued[1:]
	}
	hook := p.Hook
	p.mu.Unlock()

	if hook != nil {
		if herr := hook(c); herr != nil {
			return herr
		}
	}
	return err
}

func (p *Port) OpenFreshEntry(ctx context.Context) error {
	return p.call(ctx, core.StepOpenFreshEntry)
}

func (p *Port) DuplicateFromCurrent(ctx context.Context) error {
	return p.call(ctx, core.StepDuplicateFromCurrent)
}

func (p *Port) FillHeader(ctx context.Context, _ *core.Record) error {
	return p.call(ctx, core.StepFillHeader)
}

func (p *Port) FillDetail(ctx context.Context, _ *core.Record) error {
	return p.call(ctx, core.StepFillDetail)
}

func (p *Port) FillLines(ctx context.Context, _ *core.Record) error {
	return p.call(ctx, core.StepFillLines)
}

func (p *Port) Commit(ctx context.Context) error {
	return p.call(ctx, core.StepCommit)
}

func (p *Port) RecoverSession(ctx context.Context) error {
	return p.call(ctx, StepRecoverSession)
}

var _ core.ActionPort = (*Port)(nil)

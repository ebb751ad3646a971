package processor

import (
	"fmt"

	"github.com/jdziat/entrybatch/pkg/core"
)

// FreshSequence is the step sequence that creates a new entry for a record.
var FreshSequence = []core.Step{
	core.StepOpenFreshEntry,
	core.StepFillHeader,
	core.StepFillDetail,
	core.StepFillLines,
	core.StepCommit,
}

// Strategy binds a mode to the steps that append a chained entry.
type Strategy struct {
	Mode  core.StrategyMode
	Steps []core.Step
}

// StrategyTable lists chain strategies in fallback order. A chain starts with
// the first entry and moves one entry forward on every transient failure,
// never back.
type StrategyTable []Strategy

// DefaultStrategies returns duplicate-then-rewrite-header.
func DefaultStrategies() StrategyTable {
	return StrategyTable{
		{
			Mode: core.ModePrimary,
			Steps: []core.Step{
				core.StepDuplicateFromCurrent,
				core.StepFillDetail,
				core.StepFillLines,
				core.StepCommit,
			},
		},
		{
			Mode: core.ModeAlternative,
			Steps: []core.Step{
				core.StepFillHeader,
				core.StepFillDetail,
				core.StepFillLines,
				core.StepCommit,
			},
		},
	}
}

// First returns the mode a chain starts in.
func (t StrategyTable) First() core.StrategyMode {
	if len(t) == 0 {
		return core.ModePrimary
	}
	return t[0].Mode
}

// Steps returns the sequence for mode.
func (t StrategyTable) Steps(mode core.StrategyMode) ([]core.Step, error) {
	for _, s := range t {
		if s.Mode == mode {
			return s.Steps, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownMode, mode)
}

// Next returns the mode following mode in fallback order. The last mode is
// sticky: Next returns it unchanged with ok false.
func (t StrategyTable) Next(mode core.StrategyMode) (next core.StrategyMode, ok bool) {
	for i, s := range t {
		if s.Mode == mode && i+1 < len(t) {
			return t[i+1].Mode, true
		}
	}
	return mode, false
}

// Validate checks that the table is usable.
func (t StrategyTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty strategy table", core.ErrUnknownMode)
	}
	seen := make(map[core.StrategyMode]bool, len(t))
	for _, s := range t {
		if s.Mode == "" {
			return fmt.Errorf("%w: empty mode", core.ErrUnknownMode)
		}
		if seen[s.Mode] {
			return fmt.Errorf("%w: duplicate mode %q", core.ErrUnknownMode, s.Mode)
		}
		seen[s.Mode] = true
		if len(s.Steps) == 0 {
			return fmt.Errorf("%w: mode %q has no steps", core.ErrUnknownMode, s.Mode)
		}
		for _, step := range s.Steps {
			if step == core.StepOpenFreshEntry {
				return fmt.Errorf("%w: mode %q opens a fresh entry", core.ErrUnknownMode, s.Mode)
			}
		}
	}
	return nil
}

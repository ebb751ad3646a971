package core

import (
	"context"
	"fmt"
)

// Step names one interaction with the ActionPort.
type Step string

const (
	StepOpenFreshEntry       Step = "open_fresh_entry"
	StepDuplicateFromCurrent Step = "duplicate_from_current"
	StepFillHeader           Step = "fill_header"
	StepFillDetail           Step = "fill_detail"
	StepFillLines            Step = "fill_lines"
	StepCommit               Step = "commit"
)

// Invoke runs a single named step against the port.
func Invoke(ctx context.Context, port ActionPort, step Step, rec *Record) error {
	switch step {
	case StepOpenFreshEntry:
		return port.OpenFreshEntry(ctx)
	case StepDuplicateFromCurrent:
		return port.DuplicateFromCurrent(ctx)
	case StepFillHeader:
		return port.FillHeader(ctx, rec)
	case StepFillDetail:
		return port.FillDetail(ctx, rec)
	case StepFillLines:
		return port.FillLines(ctx, rec)
	case StepCommit:
		return port.Commit(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
}

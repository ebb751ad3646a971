// Package recordctx provides public access to record context for ActionPort
// implementations.
package recordctx

import (
	"context"

	"github.com/jdziat/entrybatch/pkg/core"
	intctx "github.com/jdziat/entrybatch/pkg/internal/context"
)

// RecordFromContext returns the record being processed, or nil outside an
// ActionPort call.
func RecordFromContext(ctx context.Context) *core.Record {
	rc := intctx.GetRecordContext(ctx)
	if rc == nil {
		return nil
	}
	return rc.Record
}

// AttemptFromContext returns the 1-based attempt number, or 0 outside an
// ActionPort call.
func AttemptFromContext(ctx context.Context) int {
	rc := intctx.GetRecordContext(ctx)
	if rc == nil {
		return 0
	}
	return rc.Attempt
}

// ModeFromContext returns the strategy mode of the current attempt. Fresh
// records always run in ModePrimary.
func ModeFromContext(ctx context.Context) core.StrategyMode {
	rc := intctx.GetRecordContext(ctx)
	if rc == nil || rc.Mode == "" {
		return core.ModePrimary
	}
	return rc.Mode
}

// ChainedFromContext reports whether the current record is a chain member.
func ChainedFromContext(ctx context.Context) bool {
	rc := intctx.GetRecordContext(ctx)
	return rc != nil && rc.Chained
}

// RunIDFromContext returns the current run ID, or empty string outside a run.
func RunIDFromContext(ctx context.Context) string {
	return intctx.GetRunID(ctx)
}

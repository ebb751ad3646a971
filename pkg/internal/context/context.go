// Package context provides context helpers for the entrybatch packages.
package context

import (
	"context"

	"github.com/jdziat/entrybatch/pkg/core"
)

// RecordContextKey is the key for storing record context in context.Context.
type RecordContextKey struct{}

// RecordContext describes the attempt an ActionPort call belongs to.
type RecordContext struct {
	RunID   string
	Record  *core.Record
	Attempt int
	Chained bool
	Mode    core.StrategyMode
}

// GetRecordContext retrieves the record context from a context.Context.
func GetRecordContext(ctx context.Context) *RecordContext {
	if rc, ok := ctx.Value(RecordContextKey{}).(*RecordContext); ok {
		return rc
	}
	return nil
}

// WithRecordContext adds record context to a context.Context.
func WithRecordContext(ctx context.Context, rc *RecordContext) context.Context {
	return context.WithValue(ctx, RecordContextKey{}, rc)
}

// RunIDKey is the key for storing the run ID in context.Context.
type RunIDKey struct{}

// WithRunID adds the run ID to a context.Context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey{}, runID)
}

// GetRunID retrieves the run ID, preferring the record context when present.
func GetRunID(ctx context.Context) string {
	if rc := GetRecordContext(ctx); rc != nil && rc.RunID != "" {
		return rc.RunID
	}
	if id, ok := ctx.Value(RunIDKey{}).(string); ok {
		return id
	}
	return ""
}

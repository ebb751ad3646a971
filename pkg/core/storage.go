package core

import "context"

// Storage defines the persistence layer for run reports.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Run lifecycle
	CreateRun(ctx context.Context, run *Run) error
	UpdateRunState(ctx context.Context, runID string, state RunState, report *BatchReport) error

	// Row outcomes
	SaveRowOutcome(ctx context.Context, outcome *RowOutcome) error

	// Queries
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRowOutcomes(ctx context.Context, runID string, status RowStatus) ([]*RowOutcome, error)
}

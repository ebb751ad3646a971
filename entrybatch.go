// Package entrybatch replays an ordered batch of records as entries in a
// remote form workflow reached through one exclusive interactive session.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	src := entrybatch.NewSlice(records...)
//	report, err := entrybatch.Run(ctx, src, port,
//	    entrybatch.MaxAttempts(3),
//	    entrybatch.RecordDelay(2*time.Second),
//	)
//
// A run that hits a failed record pauses. Use New to keep the Orchestrator
// and call Resume or Abort on it.
package entrybatch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/observe"
	"github.com/jdziat/entrybatch/pkg/orchestrator"
	"github.com/jdziat/entrybatch/pkg/processor"
	"github.com/jdziat/entrybatch/pkg/recordctx"
	"github.com/jdziat/entrybatch/pkg/retry"
	"github.com/jdziat/entrybatch/pkg/source"
	"github.com/jdziat/entrybatch/pkg/storage"
)

type (
	// Record is one row of the batch.
	Record = core.Record

	// RecordSource is the ordered, random-access record collection.
	RecordSource = core.RecordSource

	// ActionPort drives the exclusive session on the remote surface.
	ActionPort = core.ActionPort

	// Step names one ActionPort operation.
	Step = core.Step

	// RowResult is the outcome of one record.
	RowResult = core.RowResult

	// RowStatus classifies a record.
	RowStatus = core.RowStatus

	// BatchReport accumulates the results of a run.
	BatchReport = core.BatchReport

	// RunState is the lifecycle state of a run.
	RunState = core.RunState

	// StrategyMode selects how a chained entry is appended.
	StrategyMode = core.StrategyMode

	// Outcome classifies a single attempt.
	Outcome = core.Outcome

	// TransientError marks a momentarily blocked surface.
	TransientError = core.TransientError

	// FatalError marks a failure that is not retried.
	FatalError = core.FatalError

	// Observer receives run events.
	Observer = core.Observer

	// LifecycleObserver also receives run state changes.
	LifecycleObserver = core.LifecycleObserver

	// Event is the interface for all run events.
	Event = core.Event

	// AttemptEvent is emitted after every attempt.
	AttemptEvent = core.AttemptEvent

	// RowFinished is emitted when a result enters the report.
	RowFinished = core.RowFinished

	// ChainEvent is emitted when a chain starts, switches strategy or stops.
	ChainEvent = core.ChainEvent

	// StateChange is emitted on every lifecycle transition.
	StateChange = core.StateChange

	// Storage persists runs and row outcomes.
	Storage = core.Storage

	// RunRecord is the persisted run summary.
	RunRecord = core.Run

	// RowOutcome is the persisted result of one record.
	RowOutcome = core.RowOutcome

	// Orchestrator walks a RecordSource and owns the run lifecycle.
	Orchestrator = orchestrator.Orchestrator

	// Option configures an Orchestrator.
	Option = orchestrator.Option

	// RetryPolicy is the attempt budget and backoff.
	RetryPolicy = retry.Policy

	// Strategy binds a chain mode to its steps.
	Strategy = processor.Strategy

	// StrategyTable lists chain strategies in fallback order.
	StrategyTable = processor.StrategyTable

	// Slice is an in-memory RecordSource.
	Slice = source.Slice

	// Columns maps spreadsheet headers to record attributes.
	Columns = source.Columns

	// Hub fans run events out to hooks and subscribers.
	Hub = observe.Hub

	// GormStorage is the GORM-backed Storage.
	GormStorage = storage.GormStorage

	// Recorder is an observer persisting a run to Storage.
	Recorder = storage.Recorder
)

// Row statuses.
const (
	StatusSucceeded = core.StatusSucceeded
	StatusFailed    = core.StatusFailed
	StatusSkipped   = core.StatusSkipped
	StatusCancelled = core.StatusCancelled
)

// Run states.
const (
	StateIdle      = core.StateIdle
	StateRunning   = core.StateRunning
	StatePaused    = core.StatePaused
	StateCompleted = core.StateCompleted
	StateCancelled = core.StateCancelled
	StateAborted   = core.StateAborted
)

// Strategy modes.
const (
	ModePrimary     = core.ModePrimary
	ModeAlternative = core.ModeAlternative
)

// Errors.
var (
	ErrCancelled      = core.ErrCancelled
	ErrAlreadyStarted = core.ErrAlreadyStarted
	ErrNotPaused      = core.ErrNotPaused
	ErrFinished       = core.ErrFinished
	ErrUnknownMode    = core.ErrUnknownMode
	ErrRunNotFound    = core.ErrRunNotFound
)

// DefaultRecordDelay is the pause between records.
const DefaultRecordDelay = orchestrator.DefaultRecordDelay

// New creates an Orchestrator for one run over src.
func New(src RecordSource, port ActionPort, opts ...Option) (*Orchestrator, error) {
	return orchestrator.New(src, port, opts...)
}

// Run processes src to the end. A run paused by a failed record is aborted
// and its report returned; use New to resume instead.
func Run(ctx context.Context, src RecordSource, port ActionPort, opts ...Option) (*BatchReport, error) {
	o, err := orchestrator.New(src, port, opts...)
	if err != nil {
		return nil, err
	}
	report, err := o.Run(ctx)
	if err != nil {
		return nil, err
	}
	if report.State == core.StatePaused {
		if err := o.Abort(); err != nil {
			return nil, err
		}
		report = o.Report()
	}
	return report, nil
}

// Transient marks err as a momentarily blocked surface.
func Transient(err error) error { return core.Transient(err) }

// IsTransient reports whether err carries a TransientError.
func IsTransient(err error) bool { return core.IsTransient(err) }

// Fatal marks err as not retryable.
func Fatal(err error) error { return core.Fatal(err) }

// MaxAttempts sets the attempt budget per record.
func MaxAttempts(n int) Option { return orchestrator.MaxAttempts(n) }

// Retry replaces the retry policy.
func Retry(p RetryPolicy) Option { return orchestrator.Retry(p) }

// DefaultRetryPolicy returns three attempts with exponential backoff.
func DefaultRetryPolicy() RetryPolicy { return retry.DefaultPolicy() }

// WithStrategies replaces the chain strategy table.
func WithStrategies(t StrategyTable) Option { return orchestrator.WithStrategies(t) }

// DefaultStrategies returns duplicate-then-rewrite-header.
func DefaultStrategies() StrategyTable { return processor.DefaultStrategies() }

// RecordDelay sets the pause between records.
func RecordDelay(d time.Duration) Option { return orchestrator.RecordDelay(d) }

// PauseOnFailure controls whether a failed record pauses the run.
func PauseOnFailure(enabled bool) Option { return orchestrator.PauseOnFailure(enabled) }

// WithRunID sets the run identifier.
func WithRunID(id string) Option { return orchestrator.WithRunID(id) }

// WithObserver adds an observer.
func WithObserver(o Observer) Option { return orchestrator.WithObserver(o) }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return orchestrator.WithLogger(l) }

// NewSlice builds an in-memory RecordSource. Nil entries are gaps.
func NewSlice(records ...*Record) Slice { return source.NewSlice(records...) }

// ReadCSV reads records from a header-row CSV export.
func ReadCSV(r io.Reader, cols Columns) (Slice, error) { return source.ReadCSV(r, cols) }

// ReadCSVFile reads records from a CSV file.
func ReadCSVFile(path string, cols Columns) (Slice, error) { return source.ReadCSVFile(path, cols) }

// ReadXLSX reads records from one worksheet of a workbook. An empty sheet
// selects the active one.
func ReadXLSX(path, sheet string, cols Columns) (Slice, error) {
	return source.ReadXLSX(path, sheet, cols)
}

// OpenRecords reads a workbook or CSV file, chosen by extension.
func OpenRecords(path string, cols Columns) (Slice, error) { return source.Open(path, cols) }

// NewHub creates an event hub with the given subscriber buffer size.
func NewHub(bufferSize int) *Hub { return observe.NewHub(bufferSize) }

// NewLogObserver logs run events to logger.
func NewLogObserver(logger *slog.Logger) Observer { return observe.NewLogObserver(logger) }

// OpenSQLite opens and migrates a SQLite run history.
func OpenSQLite(ctx context.Context, path string) (*GormStorage, error) {
	return storage.OpenSQLite(ctx, path)
}

// NewRecorder persists every run it observes to store.
func NewRecorder(store Storage) *Recorder { return storage.NewRecorder(store) }

// RecordFromContext returns the record an ActionPort call is working on.
func RecordFromContext(ctx context.Context) *Record { return recordctx.RecordFromContext(ctx) }

// AttemptFromContext returns the 1-based attempt number of an ActionPort call.
func AttemptFromContext(ctx context.Context) int { return recordctx.AttemptFromContext(ctx) }

// ModeFromContext returns the chain strategy of an ActionPort call.
func ModeFromContext(ctx context.Context) StrategyMode { return recordctx.ModeFromContext(ctx) }

// RunIDFromContext returns the run an ActionPort call belongs to.
func RunIDFromContext(ctx context.Context) string { return recordctx.RunIDFromContext(ctx) }

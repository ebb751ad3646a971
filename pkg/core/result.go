package core

import (
	"fmt"
	"time"
)

// RowStatus is the classification of one record.
type RowStatus string

const (
	StatusSucceeded RowStatus = "succeeded"
	StatusFailed    RowStatus = "failed"  // fatal condition, not retried
	StatusSkipped   RowStatus = "skipped" // transient condition outlasted the retry budget
	// StatusCancelled marks a record abandoned by cancellation. It never
	// appears in a BatchReport list.
	StatusCancelled RowStatus = "cancelled"
)

// RowResult is the outcome of one record.
type RowResult struct {
	Index    int
	Identity string
	Status   RowStatus
	Detail   string
	Attempts int

	// Chained is true when the entry was appended to the previous one.
	Chained bool
	// Mode is the strategy used by the final attempt of a chained record.
	Mode StrategyMode
}

// RunState is the lifecycle state of an orchestrator run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StatePaused    RunState = "paused" // waiting for Resume or Abort after a fatal failure
	StateCompleted RunState = "completed"
	StateCancelled RunState = "cancelled"
	StateAborted   RunState = "aborted"
)

// Terminal reports whether no further progress is possible from s.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateAborted
}

// BatchReport accumulates the classified results of a run.
//
// The index sets of Succeeded, Failed and Skipped are pairwise disjoint.
// An index is in none of them only when the run stopped before reaching it.
type BatchReport struct {
	RunID string
	Total int

	Succeeded []RowResult
	Failed    []RowResult
	Skipped   []RowResult

	LastSuccess *RowResult
	LastFailure *RowResult

	Cancelled bool
	State     RunState
	// Paused holds the failure that paused the run, while State is StatePaused.
	Paused *RowResult

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewBatchReport creates an empty report for a run over total records.
func NewBatchReport(runID string, total int) *BatchReport {
	return &BatchReport{
		RunID: runID,
		Total: total,
		State: StateIdle,
	}
}

// Add routes a result to its list. Cancelled results are ignored and false
// is returned.
func (r *BatchReport) Add(res RowResult) bool {
	switch res.Status {
	case StatusSucceeded:
		r.Succeeded = append(r.Succeeded, res)
		last := res
		r.LastSuccess = &last
	case StatusFailed:
		r.Failed = append(r.Failed, res)
		last := res
		r.LastFailure = &last
	case StatusSkipped:
		r.Skipped = append(r.Skipped, res)
	default:
		return false
	}
	return true
}

// Processed returns the number of classified records.
func (r *BatchReport) Processed() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.Skipped)
}

// Covered reports whether index has been classified.
func (r *BatchReport) Covered(index int) bool {
	for _, list := range [][]RowResult{r.Succeeded, r.Failed, r.Skipped} {
		for _, res := range list {
			if res.Index == index {
				return true
			}
		}
	}
	return false
}

// Validate checks that every index appears at most once across the lists and
// lies within [0, Total).
func (r *BatchReport) Validate() error {
	seen := make(map[int]RowStatus, r.Processed())
	for _, list := range [][]RowResult{r.Succeeded, r.Failed, r.Skipped} {
		for _, res := range list {
			if res.Index < 0 || res.Index >= r.Total {
				return fmt.Errorf("entrybatch: index %d outside [0, %d)", res.Index, r.Total)
			}
			if prev, ok := seen[res.Index]; ok {
				return fmt.Errorf("entrybatch: index %d reported as both %s and %s", res.Index, prev, res.Status)
			}
			seen[res.Index] = res.Status
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand to callers.
func (r *BatchReport) Clone() *BatchReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Succeeded = append([]RowResult(nil), r.Succeeded...)
	c.Failed = append([]RowResult(nil), r.Failed...)
	c.Skipped = append([]RowResult(nil), r.Skipped...)
	c.LastSuccess = cloneResult(r.LastSuccess)
	c.LastFailure = cloneResult(r.LastFailure)
	c.Paused = cloneResult(r.Paused)
	return &c
}

func cloneResult(res *RowResult) *RowResult {
	if res == nil {
		return nil
	}
	c := *res
	return &c
}

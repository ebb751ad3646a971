package core

import "errors"

// Outcome classifies the result of one attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient"
	OutcomeFatal     Outcome = "fatal"
	OutcomeCancelled Outcome = "cancelled"
)

// Classify maps an attempt error to its Outcome. A FatalError anywhere in the
// chain wins over a TransientError.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, ErrCancelled) {
		return OutcomeCancelled
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return OutcomeFatal
	}
	if IsTransient(err) {
		return OutcomeTransient
	}
	return OutcomeFatal
}

// StrategyMode selects the step sequence used to append a chained entry.
type StrategyMode string

const (
	// ModePrimary duplicates the current entry.
	ModePrimary StrategyMode = "primary"
	// ModeAlternative rewrites the header of the still-open entry.
	ModeAlternative StrategyMode = "alternative"
)

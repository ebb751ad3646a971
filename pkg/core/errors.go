package core

import (
	"errors"
	"fmt"
)

// Lifecycle and validation errors
var (
	ErrCancelled      = errors.New("entrybatch: cancelled")
	ErrUnknownStep    = errors.New("entrybatch: unknown step")
	ErrUnknownMode    = errors.New("entrybatch: unknown strategy mode")
	ErrAlreadyStarted = errors.New("entrybatch: run already started")
	ErrNotPaused      = errors.New("entrybatch: run is not paused")
	ErrFinished       = errors.New("entrybatch: run already finished")
	ErrRunNotFound    = errors.New("entrybatch: run not found")
	ErrNilSource      = errors.New("entrybatch: record source is nil")
	ErrNilPort        = errors.New("entrybatch: action port is nil")
)

// TransientError indicates the remote surface is momentarily blocked.
// The current attempt is abandoned, the session is recovered and the record
// is retried while attempts remain.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps an error to mark it retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err carries a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// FatalError marks an error as non-retryable. Any error that is not transient
// is already fatal; ports use this wrapper to override a transient cause.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps an error to mark it non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

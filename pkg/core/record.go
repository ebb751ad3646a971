// Package core provides the domain models and interfaces for the entrybatch package.
package core

import "context"

// UnknownIdentity is reported when a record carries no identity.
const UnknownIdentity = "Unknown"

// Record is one input unit to be reproduced as an entry on the remote surface.
// Records are owned by their RecordSource and must not be modified once read.
type Record struct {
	// Index is the 0-based position of the record within its source.
	Index int

	// ChainKeyA and ChainKeyB decide adjacency. Two consecutive records chain
	// when both keys are equal.
	ChainKeyA string
	ChainKeyB string

	// Identity labels the record in reports (e.g. a docket number).
	Identity string

	// Fields is the payload handed to the ActionPort. The engine never reads it.
	Fields map[string]string
}

// Label returns the identity, or UnknownIdentity when it is empty.
func (r *Record) Label() string {
	if r == nil || r.Identity == "" {
		return UnknownIdentity
	}
	return r.Identity
}

// Field returns a payload value, or "" when the field is missing.
func (r *Record) Field(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// ChainsTo reports whether next shares both chain keys with r.
func (r *Record) ChainsTo(next *Record) bool {
	if r == nil || next == nil {
		return false
	}
	return r.ChainKeyA == next.ChainKeyA && r.ChainKeyB == next.ChainKeyB
}

// RecordSource supplies the ordered records of a batch.
type RecordSource interface {
	// Count returns the number of positions in the source, gaps included.
	Count() int

	// Get returns the record at i. A false second value marks a gap that the
	// engine skips silently.
	Get(i int) (*Record, bool)

	// ChainsWith reports whether records i and i+1 share both chain keys.
	// It is false when either record is absent.
	ChainsWith(i int) bool
}

// ActionPort drives one exclusive session on the remote surface.
//
// Any method may return an error wrapped with Transient to signal that the
// surface is momentarily blocked; every other error is treated as fatal for
// the current record.
type ActionPort interface {
	OpenFreshEntry(ctx context.Context) error
	DuplicateFromCurrent(ctx context.Context) error
	FillHeader(ctx context.Context, rec *Record) error
	FillDetail(ctx context.Context, rec *Record) error
	FillLines(ctx context.Context, rec *Record) error
	Commit(ctx context.Context) error

	// RecoverSession restores the surface to a clean interactive state.
	// It must be idempotent. Its failures are logged and never abort a retry.
	RecoverSession(ctx context.Context) error
}

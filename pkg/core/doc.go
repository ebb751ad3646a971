// Package core provides the fundamental types and interfaces for the entrybatch package.
//
// This package contains:
//   - Record, RowResult and BatchReport data models
//   - RecordSource and ActionPort, the collaborators consumed by the engine
//   - Observer interfaces and event types for run monitoring
//   - Error types classifying transient and fatal failures
//   - Run and RowOutcome persistence models with GORM annotations
//
// Most users should import the root package github.com/jdziat/entrybatch
// instead of this package directly.
package core

// Package context provides internal context helpers for record processing.
//
// This package is internal and should not be imported directly.
// It provides context value types for:
//   - Record context: the record, attempt and strategy mode of an ActionPort call
//   - Run ID: the identifier of the batch run in progress
package context

// Package observe provides Observer implementations for batch runs.
//
// This package includes:
//   - Hub: registers hook functions and fans events out to subscribers
//   - LogObserver: writes run events to a slog.Logger
package observe

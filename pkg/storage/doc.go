// Package storage persists run summaries and row outcomes.
//
// This package includes:
//   - GormStorage: A GORM-based core.Storage implementation
//   - Recorder: an observer that writes run events through a core.Storage
//
// Storage is for reporting only. A restarted process starts a new run; it
// never resumes one from the database.
//
// Most users should import the root package github.com/jdziat/entrybatch
// which provides NewGormStorage() and NewRecorder().
package storage

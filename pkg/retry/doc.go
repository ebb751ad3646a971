// Package retry provides the attempt budget and backoff policy shared by the
// row and chain processors.
//
// This package includes:
//   - Policy: attempt budget with exponential backoff and jitter
//   - Wait: interruptible pause between attempts
//   - Do: generic retry helper used for storage writes
//
// Most users configure retries through the root package options
// github.com/jdziat/entrybatch.MaxAttempts and entrybatch.Retry.
package retry

// Package schedule provides schedules for recurring batch runs.
//
// This package includes:
//   - Schedule interface for defining activation times
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Cron() and ParseCron() for cron expression-based schedules
//   - Loop() to run a function at each activation until cancelled
//
// Most users should import the root package github.com/jdziat/entrybatch
// which re-exports these functions.
package schedule

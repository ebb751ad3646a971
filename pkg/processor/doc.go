// Package processor turns records into entries through an ActionPort.
//
// This package includes:
//   - RowProcessor: creates one fresh entry per record with bounded retries
//   - ChainProcessor: appends adjacent records sharing both chain keys
//   - StrategyTable: the step sequences used to append a chained entry
//
// Both processors are stateless across calls. Transient failures are absorbed
// here and surface only as Skipped results; fatal failures surface as Failed.
//
// Most users should use github.com/jdziat/entrybatch or pkg/orchestrator
// rather than driving processors directly.
package processor

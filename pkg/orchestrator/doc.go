// Package orchestrator drives a batch of records through an ActionPort.
//
// An Orchestrator walks its RecordSource in order, hands each record to a
// RowProcessor and each run of chained records to a ChainProcessor, and
// classifies every result into a BatchReport. The ActionPort is one
// exclusive session, so records are never processed concurrently.
//
// A Failed result pauses the run. The caller inspects the report and either
// calls Resume to continue with the next record or Abort to end the run.
// Cancelling the context passed to Run or Resume stops the run at the next
// checkpoint without interrupting an ActionPort call already in flight.
package orchestrator

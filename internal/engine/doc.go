// Package engine implements the routine run state machine.
//
// Every function here is pure: it takes the current run explicitly, never
// mutates its input and returns the next run. Calls whose preconditions do
// not hold are no-ops that return the input unchanged, so a stale action
// delivered after the run has moved on is harmless. Timestamps are epoch
// milliseconds supplied by the caller; the engine never reads a clock.
//
// Callers own the live run. They must serialize transitions against a single
// snapshot; there is no merge of concurrent updates.
package engine

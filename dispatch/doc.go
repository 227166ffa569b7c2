// Package dispatch bounds how many upstream model calls may run at once and
// retries rate-limited attempts with backoff.
//
// Admission: at most MaxParallel tasks run simultaneously; excess submissions
// wait in strict FIFO order and are started as capacity frees. A running task
// executes synchronously to completion in the submitter's goroutine.
//
// Retry happens inside the task's slot (it never consumes a second one): a
// rate-limit signal triggers a bounded number of further attempts separated
// by exponential backoff, honoring a short advisory retry-after delay when
// the upstream provided one and failing fast when the advisory delay is too
// long to justify blocking the caller. Errors of any other class are returned
// as-is on the first occurrence.
//
// Completion always releases the slot and wakes the next waiter, optionally
// after a small pacing delay to smooth the call rate. Sleeping goes through
// an injected sleeper so tests run without real delays.
package dispatch

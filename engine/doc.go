// Package engine dispatches queued actions under bounded concurrency. The
// Processor drains an internal FIFO queue, admits each action through the
// rate limiter (suspending on backpressure rather than dropping work) and
// invokes admitted actions as independent units of work, waiting for the
// whole batch before returning. The Executor sits in front of it, owning the
// pile of all known actions and the progression of pending identities, and
// bridges callers to the processor.
//
// An action is dispatched at most once: only pending actions are eligible,
// and processing or terminal actions are never re-enqueued by a later
// forward. One action's failure never interrupts its siblings; the executor
// surfaces aggregate counts instead of raising.
package engine

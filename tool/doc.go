// Package tool implements the function calling subsystem: registered
// callables with optional pre/post processing and result parsing, the
// FunctionCalling action state machine that tracks one bound invocation, and
// the ToolManager registry that resolves invocation requests into bound
// actions.
//
// Tools are immutable after construction and safe for concurrent use. A
// FunctionCalling is a small state machine (pending -> processing ->
// completed | failed) whose terminal states are sticky; any failure during
// invocation is captured on the action rather than propagated, so one
// action's failure never aborts a batch.
package tool

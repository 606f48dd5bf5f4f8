package tool

import "fmt"

// ValidationError reports a malformed invocation request: an unknown tool
// name or a payload that cannot be decoded into name + arguments. It is
// raised synchronously at match/append time and never swallowed.
type ValidationError struct {
	Field   string `json:"field"`   // Offending part of the request
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %q: %s", e.Field, e.Message)
}

// InvocationError reports a failure inside a tool invocation (pre-processor,
// function, post-processor, timeout or recovered panic). It is captured on
// the action as its failure reason, never propagated into the processor loop.
type InvocationError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Stage   string `json:"stage"`   // pre_processor, function, post_processor, timeout
	Message string `json:"message"` // Error message
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s failed in %s: %s", e.Tool, e.Stage, e.Message)
}

func newInvocationError(tool, stage string, err error) *InvocationError {
	return &InvocationError{Tool: tool, Stage: stage, Message: err.Error()}
}

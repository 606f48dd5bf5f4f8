package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/actionmesh/core"
)

// Status is the lifecycle state of a FunctionCalling.
type Status string

const (
	// StatusPending marks an action that has not been dispatched yet.
	StatusPending Status = "pending"
	// StatusProcessing marks an action whose invocation is in flight.
	StatusProcessing Status = "processing"
	// StatusCompleted marks a successfully finished action. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed marks an action whose invocation failed. Terminal.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is sticky.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FunctionCalling is one bound invocation of a Tool: the action unit the
// executor tracks in its pile. It embeds core.Element, so it is
// identity-addressable, and carries a small state machine whose terminal
// states are sticky.
type FunctionCalling struct {
	core.Element

	tool      *Tool
	arguments map[string]any

	mu            sync.Mutex
	status        Status
	result        any
	err           error
	executionTime time.Duration
}

// NewFunctionCalling binds a Tool to a set of arguments, creating a pending
// action.
func NewFunctionCalling(t *Tool, arguments map[string]any) *FunctionCalling {
	args := make(map[string]any, len(arguments))
	for k, v := range arguments {
		args[k] = v
	}
	return &FunctionCalling{
		Element:   core.NewElement(),
		tool:      t,
		arguments: args,
		status:    StatusPending,
	}
}

// Tool returns the bound tool.
func (fc *FunctionCalling) Tool() *Tool { return fc.tool }

// Arguments returns a copy of the bound arguments.
func (fc *FunctionCalling) Arguments() map[string]any {
	out := make(map[string]any, len(fc.arguments))
	for k, v := range fc.arguments {
		out[k] = v
	}
	return out
}

// Status returns the current lifecycle state.
func (fc *FunctionCalling) Status() Status {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.status
}

// Result returns the persisted (post-processed, unparsed) result.
func (fc *FunctionCalling) Result() any {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.result
}

// Err returns the captured failure, nil while not failed.
func (fc *FunctionCalling) Err() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.err
}

// ExecutionTime returns the wall-clock duration of the invocation.
func (fc *FunctionCalling) ExecutionTime() time.Duration {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.executionTime
}

// MarkProcessing transitions pending -> processing. It reports whether the
// transition happened; an action already processing or terminal is left
// untouched, which is what guarantees at-most-once dispatch.
func (fc *FunctionCalling) MarkProcessing() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.status != StatusPending {
		return false
	}
	fc.status = StatusProcessing
	return true
}

// Fail force-transitions a non-terminal action to failed with the given
// reason. Terminal states are sticky: failing a completed or already failed
// action is a no-op returning false.
func (fc *FunctionCalling) Fail(err error) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.status.Terminal() {
		return false
	}
	fc.status = StatusFailed
	fc.err = err
	return true
}

func (fc *FunctionCalling) complete(result any, elapsed time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.status.Terminal() {
		return
	}
	fc.status = StatusCompleted
	fc.result = result
	fc.executionTime = elapsed
}

func (fc *FunctionCalling) fail(err error, elapsed time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.status.Terminal() {
		return
	}
	fc.status = StatusFailed
	fc.err = err
	fc.executionTime = elapsed
}

// Invoke runs the bound tool:
//
//  1. the pre-processor's output is merged over the arguments
//  2. the function runs under a wall-clock timer (and optional timeout)
//  3. the post-processor receives the function's raw return
//  4. the parser shapes only the value returned to the caller; the unparsed
//     result is what is persisted on the action
//
// Any failure (including a recovered panic) marks the action failed with the
// captured error; Invoke itself never panics. The returned error mirrors
// what was captured so direct callers can inspect it, but batch dispatchers
// are free to ignore it. Invoking a terminal action is a no-op that returns
// the recorded outcome.
func (fc *FunctionCalling) Invoke(ctx context.Context) (any, error) {
	fc.mu.Lock()
	if fc.status.Terminal() {
		result, err := fc.result, fc.err
		fc.mu.Unlock()
		return result, err
	}
	fc.status = StatusProcessing
	fc.mu.Unlock()

	start := time.Now()
	raw, err := fc.run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		fc.fail(err, elapsed)
		return nil, err
	}

	parsed := raw
	if fc.tool.parser != nil {
		p, perr := fc.tool.parser(raw)
		if perr != nil {
			// The parser shapes the caller-visible value only; the action
			// itself completed and keeps the unparsed result.
			fc.complete(raw, elapsed)
			return raw, fmt.Errorf("parse result of %s: %w", fc.tool.name, perr)
		}
		parsed = p
	}

	fc.complete(raw, elapsed)
	return parsed, nil
}

// run executes pre-processor, function and post-processor with panic safety.
func (fc *FunctionCalling) run(ctx context.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newInvocationError(fc.tool.name, "function", fmt.Errorf("panic recovered: %v", r))
		}
	}()

	args := fc.Arguments()
	if fc.tool.pre != nil {
		merged, preErr := fc.tool.pre(ctx, args)
		if preErr != nil {
			return nil, newInvocationError(fc.tool.name, "pre_processor", preErr)
		}
		for k, v := range merged {
			args[k] = v
		}
	}

	raw, callErr := fc.call(ctx, args)
	if callErr != nil {
		return nil, callErr
	}

	if fc.tool.post != nil {
		post, postErr := fc.tool.post(ctx, raw)
		if postErr != nil {
			return nil, newInvocationError(fc.tool.name, "post_processor", postErr)
		}
		raw = post
	}

	return raw, nil
}

// call runs the function itself, enforcing the per-invocation timeout when
// one is configured. On expiry the underlying call is abandoned, not
// forcibly stopped.
func (fc *FunctionCalling) call(ctx context.Context, args map[string]any) (any, error) {
	if fc.tool.timeout <= 0 {
		out, err := fc.tool.fn(ctx, args)
		if err != nil {
			return nil, newInvocationError(fc.tool.name, "function", err)
		}
		return out, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, fc.tool.timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic recovered: %v", r)}
			}
		}()
		value, err := fc.tool.fn(callCtx, args)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, newInvocationError(fc.tool.name, "function", out.err)
		}
		return out.value, nil
	case <-callCtx.Done():
		return nil, newInvocationError(fc.tool.name, "timeout",
			fmt.Errorf("invocation exceeded %s: %w", fc.tool.timeout, callCtx.Err()))
	}
}

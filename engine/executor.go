package engine

import (
	"context"
	"sync"

	"github.com/hupe1980/actionmesh/core"
	"github.com/hupe1980/actionmesh/logging"
	"github.com/hupe1980/actionmesh/tool"
)

// Stats aggregates the lifecycle states of every tracked action. The
// executor reports counts rather than raising for action-level failures.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Executor owns the pile of all known actions and the progression of
// pending (undispatched) identities, bridging callers to the Processor.
// Results stay queryable in the pile until explicitly removed.
type Executor struct {
	mu        sync.Mutex // guards pending; the pile carries its own lock
	pile      *core.Pile
	pending   *core.Progression
	processor *Processor
	logger    logging.Logger
}

// ExecutorOption customizes an Executor at construction time.
type ExecutorOption func(*Executor)

// WithExecutorLogger attaches a structured logger.
func WithExecutorLogger(logger logging.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// NewExecutor creates an Executor in front of the given processor. The
// action pile is strictly type-constrained to *tool.FunctionCalling.
func NewExecutor(processor *Processor, opts ...ExecutorOption) *Executor {
	e := &Executor{
		pile: core.NewPile(
			core.WithItemType((*tool.FunctionCalling)(nil)),
			core.WithStrictType(),
		),
		pending:   core.NewProgression("pending"),
		processor: processor,
		logger:    logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Append includes an action into the pile and marks it pending. Appending a
// nil action is a validation error. Appending an already-known action is a
// no-op for the pile, and only still-pending actions are (re)marked for
// dispatch, preserving at-most-once dispatch.
func (e *Executor) Append(fc *tool.FunctionCalling) error {
	if fc == nil {
		return &tool.ValidationError{Field: "action", Message: "action must not be nil"}
	}
	if err := e.pile.Include(fc); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if fc.Status() == tool.StatusPending {
		e.pending.Include(fc.Identity())
	}
	return nil
}

// Forward drains the pending progression front-to-back into the processor's
// queue, then triggers Process, returning once the whole batch has settled.
func (e *Executor) Forward(ctx context.Context) error {
	for {
		e.mu.Lock()
		id, err := e.pending.PopLeft()
		e.mu.Unlock()
		if err != nil {
			break
		}
		item, ok := e.pile.Get(id)
		if !ok {
			// Explicitly removed while pending; nothing to dispatch.
			e.logger.Debug("executor.forward.missing", "action", id.String())
			continue
		}
		e.processor.Enqueue(item.(*tool.FunctionCalling))
	}
	return e.processor.Process(ctx)
}

// Get returns a tracked action by identity.
func (e *Executor) Get(id core.ID) (*tool.FunctionCalling, bool) {
	item, ok := e.pile.Get(id)
	if !ok {
		return nil, false
	}
	return item.(*tool.FunctionCalling), true
}

// Remove deletes an action from the pile (and from the pending progression
// if it was never dispatched).
func (e *Executor) Remove(id core.ID) {
	e.mu.Lock()
	e.pending.Exclude(id)
	e.mu.Unlock()
	e.pile.ExcludeID(id)
}

// Actions returns every tracked action in insertion order.
func (e *Executor) Actions() []*tool.FunctionCalling {
	items := e.pile.Items()
	out := make([]*tool.FunctionCalling, 0, len(items))
	for _, item := range items {
		out = append(out, item.(*tool.FunctionCalling))
	}
	return out
}

// Completed returns every action in completed status, in insertion order.
func (e *Executor) Completed() []*tool.FunctionCalling {
	return e.filter(tool.StatusCompleted)
}

// Failed returns every action in failed status, in insertion order.
func (e *Executor) Failed() []*tool.FunctionCalling {
	return e.filter(tool.StatusFailed)
}

// Pending returns every action still awaiting dispatch, in insertion order.
func (e *Executor) Pending() []*tool.FunctionCalling {
	return e.filter(tool.StatusPending)
}

func (e *Executor) filter(status tool.Status) []*tool.FunctionCalling {
	var out []*tool.FunctionCalling
	for _, fc := range e.Actions() {
		if fc.Status() == status {
			out = append(out, fc)
		}
	}
	return out
}

// Stats returns aggregate success/failure counts across all tracked actions.
func (e *Executor) Stats() Stats {
	var s Stats
	for _, fc := range e.Actions() {
		s.Total++
		switch fc.Status() {
		case tool.StatusPending:
			s.Pending++
		case tool.StatusProcessing:
			s.Processing++
		case tool.StatusCompleted:
			s.Completed++
		case tool.StatusFailed:
			s.Failed++
		}
	}
	return s
}

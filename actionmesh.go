// Package actionmesh provides a high-level façade over the action-execution
// engine: an identity-addressed pile of actions, a tool registry, a
// rolling-window rate limiter and a bounded-concurrency dispatcher. Most
// applications interact with this package by:
//  1. Creating an ActionMesh via New() (optionally tuning limits and concurrency)
//  2. Registering one or more tools (explicit Tool values or bare functions)
//  3. Submitting invocation requests and calling Forward to dispatch them
//
// The façade delegates queueing and dispatch to engine.Executor/Processor
// while keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply real
// budget limits and a structured logger.
package actionmesh

import (
	"context"

	"github.com/hupe1980/actionmesh/core"
	"github.com/hupe1980/actionmesh/engine"
	"github.com/hupe1980/actionmesh/logging"
	"github.com/hupe1980/actionmesh/ratelimit"
	"github.com/hupe1980/actionmesh/retry"
	"github.com/hupe1980/actionmesh/tool"
)

// Options configures the ActionMesh instance.
type Options struct {
	// EngineConfig tunes dispatch concurrency and default cost estimates.
	EngineConfig engine.Config

	// LimitRequests / LimitTokens are the per-window budgets. Zero leaves
	// the budget unconstrained.
	LimitRequests int
	LimitTokens   int

	// RetryPolicy governs backoff on momentarily exhausted capacity.
	RetryPolicy retry.Policy

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ActionMesh is the high-level façade aggregating the tool registry, the
// rate limiter and the executor/processor pair.
type ActionMesh struct {
	opts     Options
	tools    *tool.ToolManager
	limiter  *ratelimit.RateLimiter
	executor *engine.Executor
}

// New creates an ActionMesh with optional overrides.
func New(optFns ...func(o *Options)) *ActionMesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		RetryPolicy:  retry.DefaultPolicy(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var limiter *ratelimit.RateLimiter
	if opts.LimitRequests > 0 || opts.LimitTokens > 0 {
		limiter = ratelimit.New(opts.LimitRequests, opts.LimitTokens, ratelimit.WithLogger(opts.Logger))
	}

	processor := engine.NewProcessor(limiter,
		engine.WithConfig(opts.EngineConfig),
		engine.WithRetryPolicy(opts.RetryPolicy),
		engine.WithLogger(opts.Logger),
	)

	return &ActionMesh{
		opts:     opts,
		tools:    tool.NewToolManager(tool.WithLogger(opts.Logger)),
		limiter:  limiter,
		executor: engine.NewExecutor(processor, engine.WithExecutorLogger(opts.Logger)),
	}
}

// Tools exposes the underlying registry for advanced use.
func (m *ActionMesh) Tools() *tool.ToolManager { return m.tools }

// RegisterTool adds a pre-built tool to the registry.
func (m *ActionMesh) RegisterTool(t *tool.Tool, update bool) error {
	return m.tools.Register(t, update)
}

// RegisterFunc wraps a bare callable and registers it, deriving the name
// from the function symbol.
func (m *ActionMesh) RegisterFunc(fn tool.Func, opts ...tool.Option) (*tool.Tool, error) {
	return m.tools.RegisterFunc(fn, opts...)
}

// Submit resolves a request into a bound action and queues it for dispatch,
// returning the action's identity for later lookup.
func (m *ActionMesh) Submit(req tool.Request) (core.ID, error) {
	fc, err := m.tools.Match(req)
	if err != nil {
		return "", err
	}
	if err := m.executor.Append(fc); err != nil {
		return "", err
	}
	return fc.Identity(), nil
}

// SubmitString decodes an encoded payload and submits it in one step.
func (m *ActionMesh) SubmitString(encoded string) (core.ID, error) {
	req, err := tool.ParseRequest(encoded)
	if err != nil {
		return "", err
	}
	return m.Submit(req)
}

// Forward dispatches every pending action and waits for the batch to settle.
func (m *ActionMesh) Forward(ctx context.Context) error {
	return m.executor.Forward(ctx)
}

// Get returns a submitted action by identity.
func (m *ActionMesh) Get(id core.ID) (*tool.FunctionCalling, bool) {
	return m.executor.Get(id)
}

// Stats returns aggregate counts across all submitted actions.
func (m *ActionMesh) Stats() engine.Stats { return m.executor.Stats() }

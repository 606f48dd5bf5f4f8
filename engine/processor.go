package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/actionmesh/logging"
	"github.com/hupe1980/actionmesh/ratelimit"
	"github.com/hupe1980/actionmesh/retry"
	"github.com/hupe1980/actionmesh/tool"
)

// Config defines tuning parameters for the Processor.
type Config struct {
	// Capacity limits the number of actions in flight at once. Dispatch
	// start order is FIFO; completion order is unspecified.
	Capacity int

	// TokensPerAction is the default token-cost estimate used when no
	// custom CostEstimator is supplied.
	TokensPerAction int
}

// DefaultConfig is a safe starting point for local use.
var DefaultConfig = Config{
	Capacity:        8,
	TokensPerAction: 1,
}

// CostEstimator maps an action to its request/token admission costs. The
// estimate is reconciled later when the result reports actual usage.
type CostEstimator func(fc *tool.FunctionCalling) (requestCost, tokenCost int)

// UsageReporter is implemented by tool results that carry provider-reported
// usage. The processor uses it to reconcile the rate limiter's estimated
// reservation with the observed cost.
type UsageReporter interface {
	// UsageTokens returns the actual token cost of the call.
	UsageTokens() int
	// UsageTimestamp returns the provider response timestamp.
	UsageTimestamp() time.Time
}

// Processor is a bounded-concurrency dispatcher for actions. Enqueue is
// non-blocking; Process drains the queue, consulting the rate limiter per
// action and waiting for the whole batch before returning, so callers never
// observe silently-orphaned in-flight work.
type Processor struct {
	mu    sync.Mutex
	queue []*tool.FunctionCalling

	cfg      Config
	limiter  *ratelimit.RateLimiter
	policy   retry.Policy
	estimate CostEstimator
	logger   logging.Logger

	stopMu  sync.Mutex
	stopped chan struct{}
}

// ProcessorOption customizes a Processor at construction time.
type ProcessorOption func(*Processor)

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) ProcessorOption {
	return func(p *Processor) { p.cfg = cfg }
}

// WithRetryPolicy overrides the retry policy applied to admission.
func WithRetryPolicy(policy retry.Policy) ProcessorOption {
	return func(p *Processor) { p.policy = policy }
}

// WithCostEstimator overrides how admission costs are derived per action.
func WithCostEstimator(estimate CostEstimator) ProcessorOption {
	return func(p *Processor) { p.estimate = estimate }
}

// WithLogger attaches a structured logger.
func WithLogger(logger logging.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a Processor consulting the given rate limiter. A nil
// limiter disables budget enforcement.
func NewProcessor(limiter *ratelimit.RateLimiter, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cfg:     DefaultConfig,
		limiter: limiter,
		policy:  retry.DefaultPolicy(),
		logger:  logging.NoOpLogger{},
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.Capacity < 1 {
		p.cfg.Capacity = 1
	}
	if p.estimate == nil {
		tokens := p.cfg.TokensPerAction
		if tokens < 1 {
			tokens = 1
		}
		p.estimate = func(*tool.FunctionCalling) (int, int) { return 1, tokens }
	}
	return p
}

// Enqueue places an action on the internal queue without blocking.
func (p *Processor) Enqueue(fc *tool.FunctionCalling) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, fc)
}

func (p *Processor) dequeue() (*tool.FunctionCalling, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	fc := p.queue[0]
	p.queue = p.queue[1:]
	return fc, true
}

// QueueLen returns the number of queued, not-yet-dispatched actions.
func (p *Processor) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Process drains the queue, dispatching up to Capacity actions concurrently.
// Per action it admits the estimated costs through the rate limiter —
// suspending on momentary exhaustion via the retry policy's capacity-aware
// waiting — then launches the invocation as an independent unit of work.
// Process waits for every launched invocation before returning. A fatal
// admission error (request too large, retries exhausted, context ended)
// marks the action failed and moves on; it never interrupts siblings.
func (p *Processor) Process(ctx context.Context) error {
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Capacity)

	for {
		if ctx.Err() != nil {
			break
		}
		fc, ok := p.dequeue()
		if !ok {
			break
		}
		if fc.Status() != tool.StatusPending {
			p.logger.Debug("processor.skip", "action", fc.Identity().String(), "status", string(fc.Status()))
			continue
		}

		requestCost, tokenCost := p.estimate(fc)
		if err := p.admit(ctx, requestCost, tokenCost); err != nil {
			fc.Fail(err)
			p.logger.Warn("processor.admit.failed",
				"action", fc.Identity().String(),
				"tool", fc.Tool().Name(),
				"error", err.Error(),
			)
			continue
		}

		if !fc.MarkProcessing() {
			// Lost the dispatch race; hand the reservation back.
			if p.limiter != nil {
				p.limiter.Refund(requestCost, tokenCost)
			}
			continue
		}

		action := fc
		g.Go(func() error {
			p.logger.Debug("processor.dispatch", "action", action.Identity().String(), "tool", action.Tool().Name())

			_, invErr := action.Invoke(ctx)
			if invErr != nil {
				p.logger.Warn("action.invoke.failed",
					"action", action.Identity().String(),
					"tool", action.Tool().Name(),
					"error", invErr.Error(),
				)
			} else {
				p.logger.Info("action.invoke.completed",
					"action", action.Identity().String(),
					"tool", action.Tool().Name(),
					"duration_ms", action.ExecutionTime().Milliseconds(),
				)
			}

			if p.limiter != nil {
				if usage, ok := action.Result().(UsageReporter); ok {
					p.limiter.UpdateFromResponse(usage.UsageTokens(), usage.UsageTimestamp())
				}
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		return waitErr
	}
	return ctx.Err()
}

// admit reserves limiter capacity for one action, retrying momentary
// exhaustion per the policy. Exhausted retries surface as a terminal error.
func (p *Processor) admit(ctx context.Context, requestCost, tokenCost int) error {
	if p.limiter == nil {
		return nil
	}
	err := p.policy.Execute(ctx, p.limiter, func() error {
		return p.limiter.Admit(requestCost, tokenCost)
	})
	if err == nil {
		return nil
	}
	var transient *ratelimit.BackoffError
	if errors.As(err, &transient) {
		return fmt.Errorf("admission retries exhausted: %w", err)
	}
	return err
}

// Execute runs Process in a loop every refresh interval until the context
// ends or Stop is called.
func (p *Processor) Execute(ctx context.Context, refresh time.Duration) error {
	if refresh <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", refresh)
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		if err := p.Process(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopChan():
			return nil
		case <-ticker.C:
		}
	}
}

// Stop signals a running Execute loop to finish after the current cycle.
func (p *Processor) Stop() {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	select {
	case <-p.stopped:
	default:
		close(p.stopped)
	}
}

// Start clears a previous Stop signal so Execute can run again.
func (p *Processor) Start() {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	select {
	case <-p.stopped:
		p.stopped = make(chan struct{})
	default:
	}
}

func (p *Processor) stopChan() chan struct{} {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	return p.stopped
}

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/actionmesh/logging"
)

// DefaultWindow is the rolling window after which reservations are credited
// back to the remaining budgets.
const DefaultWindow = 60 * time.Second

// DefaultPollInterval is how often WaitForCapacity re-checks the budgets.
const DefaultPollInterval = 250 * time.Millisecond

// reservation is one unreleased budget charge.
type reservation struct {
	at       time.Time
	requests int
	tokens   int
}

// RateLimiter tracks request and token budgets over a rolling window. The
// two budgets are independent and must both have capacity for an admission
// to succeed. All mutating methods take an internal lock, so a single
// limiter may be shared by multiple processors.
type RateLimiter struct {
	mu sync.Mutex

	limitRequests     int
	limitTokens       int
	remainingRequests int
	remainingTokens   int

	// unreleased is time-ordered: Reserve appends, ReleaseExpired pops from
	// the front. The ordering is what makes the early exit in
	// ReleaseExpired valid.
	unreleased []reservation

	window time.Duration
	poll   time.Duration
	now    func() time.Time
	logger logging.Logger
}

// Option customizes a RateLimiter at construction time.
type Option func(*RateLimiter)

// WithWindow overrides the rolling window (default 60s).
func WithWindow(d time.Duration) Option {
	return func(l *RateLimiter) { l.window = d }
}

// WithPollInterval overrides how often WaitForCapacity re-checks capacity.
func WithPollInterval(d time.Duration) Option {
	return func(l *RateLimiter) { l.poll = d }
}

// WithClock overrides the time source. Intended for tests that simulate the
// passage of the window.
func WithClock(now func() time.Time) Option {
	return func(l *RateLimiter) { l.now = now }
}

// WithLogger attaches a structured logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *RateLimiter) { l.logger = logger }
}

// New creates a RateLimiter with the given per-window limits. A limit <= 0
// leaves that budget unconstrained.
func New(limitRequests, limitTokens int, opts ...Option) *RateLimiter {
	l := &RateLimiter{
		limitRequests:     limitRequests,
		limitTokens:       limitTokens,
		remainingRequests: limitRequests,
		remainingTokens:   limitTokens,
		window:            DefaultWindow,
		poll:              DefaultPollInterval,
		now:               time.Now,
		logger:            logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limits returns the configured per-window budgets.
func (l *RateLimiter) Limits() (requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitRequests, l.limitTokens
}

// SetLimits replaces the configured budgets, keeping outstanding
// reservations charged. Remaining capacity shifts by the limit delta.
// Useful when a provider reports its actual limits at response time.
func (l *RateLimiter) SetLimits(requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remainingRequests += requests - l.limitRequests
	l.remainingTokens += tokens - l.limitTokens
	l.limitRequests = requests
	l.limitTokens = tokens
}

// Remaining returns the currently uncharged budget capacity.
func (l *RateLimiter) Remaining() (requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingRequests, l.remainingTokens
}

// Unreleased returns the summed costs currently held in the FIFO queue.
// Remaining() plus Unreleased() always equals Limits() for a constrained
// budget (credit conservation).
func (l *RateLimiter) Unreleased() (requests, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.unreleased {
		requests += r.requests
		tokens += r.tokens
	}
	return requests, tokens
}

// CheckAvailability reports whether both budgets can absorb the given costs.
// It is read-only; pair it with Reserve to actually charge the budgets. The
// two steps are intentionally separable.
func (l *RateLimiter) CheckAvailability(requestCost, tokenCost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableLocked(requestCost, tokenCost)
}

func (l *RateLimiter) availableLocked(requestCost, tokenCost int) bool {
	if l.limitRequests > 0 && l.remainingRequests < requestCost {
		return false
	}
	if l.limitTokens > 0 && l.remainingTokens < tokenCost {
		return false
	}
	return true
}

// Reserve charges both budgets and appends the reservation to the FIFO
// queue. Callers are expected to have verified capacity via
// CheckAvailability (or use Admit, which does both under one lock).
func (l *RateLimiter) Reserve(requestCost, tokenCost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserveLocked(requestCost, tokenCost)
}

func (l *RateLimiter) reserveLocked(requestCost, tokenCost int) {
	l.remainingRequests -= requestCost
	l.remainingTokens -= tokenCost
	l.unreleased = append(l.unreleased, reservation{at: l.now(), requests: requestCost, tokens: tokenCost})
}

// Admit checks and reserves capacity under a single lock acquisition. It
// returns RequestTooLargeError when the token cost can never fit, and
// BackoffError when capacity is momentarily exhausted.
func (l *RateLimiter) Admit(requestCost, tokenCost int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limitTokens > 0 && tokenCost > l.limitTokens {
		return &RequestTooLargeError{Tokens: tokenCost, Limit: l.limitTokens}
	}
	if !l.availableLocked(requestCost, tokenCost) {
		return &BackoffError{RequestCost: requestCost, TokenCost: tokenCost}
	}
	l.reserveLocked(requestCost, tokenCost)
	return nil
}

// Refund removes the newest unreleased reservation matching the given costs
// and credits them back. It undoes a reservation whose action was never
// dispatched.
func (l *RateLimiter) Refund(requestCost, tokenCost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.unreleased) - 1; i >= 0; i-- {
		r := l.unreleased[i]
		if r.requests == requestCost && r.tokens == tokenCost {
			l.unreleased = append(l.unreleased[:i], l.unreleased[i+1:]...)
			l.remainingRequests += requestCost
			l.remainingTokens += tokenCost
			return
		}
	}
}

// ReleaseExpired credits back every reservation older than the window,
// strictly in arrival order, stopping at the first still-fresh entry. The
// early exit is valid because the queue is time-ordered. It returns how many
// reservations were released; on a queue with no stale entries it is a
// no-op.
func (l *RateLimiter) ReleaseExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	released := 0
	for len(l.unreleased) > 0 {
		head := l.unreleased[0]
		if now.Sub(head.at) < l.window {
			break
		}
		l.remainingRequests += head.requests
		l.remainingTokens += head.tokens
		l.unreleased = l.unreleased[1:]
		released++
	}
	if released > 0 {
		l.logger.Debug("ratelimit.released", "count", released,
			"remaining_requests", l.remainingRequests, "remaining_tokens", l.remainingTokens)
	}
	return released
}

// UpdateFromResponse reconciles an estimated reservation with the actual
// token cost reported by a provider response. The most recent reservation
// not after the response timestamp is adjusted (falling back to the oldest
// entry when every reservation is newer), so future releases credit the
// observed amount and credit conservation is preserved.
func (l *RateLimiter) UpdateFromResponse(observedTokens int, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.unreleased) == 0 {
		// Nothing outstanding to reconcile; charge the observed usage as a
		// fresh reservation so the window still accounts for it.
		l.remainingTokens -= observedTokens
		l.unreleased = append(l.unreleased, reservation{at: at, tokens: observedTokens})
		return
	}
	idx := 0
	for i := len(l.unreleased) - 1; i >= 0; i-- {
		if !l.unreleased[i].at.After(at) {
			idx = i
			break
		}
	}
	delta := observedTokens - l.unreleased[idx].tokens
	l.unreleased[idx].tokens = observedTokens
	l.remainingTokens -= delta
	if delta != 0 {
		l.logger.Debug("ratelimit.reconciled", "observed_tokens", observedTokens, "delta", delta)
	}
}

// WaitForCapacity blocks until both budgets can absorb the given costs,
// releasing expired reservations between checks so recovery happens as soon
// as capacity frees rather than after a fixed sleep. It fails fast with
// RequestTooLargeError when the token cost can never fit, and returns a
// BackoffError wrapping ctx.Err() when the context ends first.
func (l *RateLimiter) WaitForCapacity(ctx context.Context, requestCost, tokenCost int) error {
	l.mu.Lock()
	tooLarge := l.limitTokens > 0 && tokenCost > l.limitTokens
	limit := l.limitTokens
	l.mu.Unlock()
	if tooLarge {
		return &RequestTooLargeError{Tokens: tokenCost, Limit: limit}
	}

	for {
		l.ReleaseExpired()
		if l.CheckAvailability(requestCost, tokenCost) {
			return nil
		}
		select {
		case <-ctx.Done():
			return &BackoffError{RequestCost: requestCost, TokenCost: tokenCost, Cause: ctx.Err()}
		case <-time.After(l.poll):
		}
	}
}

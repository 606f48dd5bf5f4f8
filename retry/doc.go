// Package retry provides an explicit retry policy value object applied via
// ordinary composition rather than decorators or wrappers hidden in call
// sites. The policy distinguishes fatal from transient failures: transient
// rate-limit errors wait for limiter capacity to free (shortening recovery
// when older reservations expire early) before the next attempt, while
// everything else fails immediately.
package retry

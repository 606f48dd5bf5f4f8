// Package ratelimit implements a rolling-window budget tracker for request
// and token costs. Reservations are held in a FIFO queue and credited back
// once they age past the window, so the invariant
//
//	remaining + sum(unreleased costs) == limit
//
// holds for both budgets at all times. Estimated reservations can later be
// reconciled against provider-reported actual usage.
//
// The limiter distinguishes two failure classes: a request whose token need
// exceeds the configured token limit can never succeed and fails fatally
// (RequestTooLargeError), while momentarily exhausted capacity is transient
// (BackoffError) and resolved by waiting for older reservations to expire.
package ratelimit

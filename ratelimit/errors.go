package ratelimit

import "fmt"

// RequestTooLargeError reports a request whose token need exceeds the token
// limit before any reservation. It is fatal: no amount of waiting can free
// enough capacity, so it must never be retried.
type RequestTooLargeError struct {
	Tokens int // Tokens the request needs
	Limit  int // Configured token limit
}

func (e *RequestTooLargeError) Error() string {
	return fmt.Sprintf("request needs %d tokens, exceeding the token limit of %d", e.Tokens, e.Limit)
}

// BackoffError reports momentarily exhausted capacity. It is transient:
// retrying after older reservations expire is expected to succeed. The cost
// fields carry what the caller was trying to admit so a retry policy can
// wait for exactly that much capacity.
type BackoffError struct {
	RequestCost int
	TokenCost   int
	Cause       error // Optional underlying cause (e.g. context cancellation)
}

func (e *BackoffError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rate limit capacity unavailable (%d requests, %d tokens): %v", e.RequestCost, e.TokenCost, e.Cause)
	}
	return fmt.Sprintf("rate limit capacity unavailable (%d requests, %d tokens)", e.RequestCost, e.TokenCost)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *BackoffError) Unwrap() error { return e.Cause }

// Package logging provides a minimal logging interface and adapters for the
// action engine.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, tool and ratelimit packages use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(nil) // JSON, info level
//	proc := engine.NewProcessor(limiter, engine.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging

// Package core provides the foundational collection types the action engine
// is built from. It defines:
//
//   - ID (opaque, structurally validated identity tokens)
//   - Element / Item (minimal identity + timestamp bearing units)
//   - Progression (ordered, index-addressable sequences of IDs)
//   - Pile (concurrency-safe, identity-indexed, insertion-ordered collections)
//   - Codec registry (pluggable serialization for Pile dump/load)
//
// The package intentionally keeps execution concerns (tools, rate limiting,
// dispatch) out of scope, exposing small types that the tool and engine
// packages compose. A Pile is the only structure here that carries its own
// lock; Progressions delegate concurrency safety to whatever container
// guards them.
package core

package core

import (
	"encoding/json"
	"sync"

	"gopkg.in/yaml.v3"
)

// Codec serializes and deserializes pile snapshots for a single format.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CodecRegistry maps format names to codecs. Registries are explicit values
// so independent engines can carry independent format sets; DefaultCodecRegistry
// returns a fresh registry preloaded with the built-in formats.
type CodecRegistry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewCodecRegistry creates an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{codecs: make(map[string]Codec)}
}

// DefaultCodecRegistry returns a registry with the built-in "json" and "yaml"
// codecs registered.
func DefaultCodecRegistry() *CodecRegistry {
	r := NewCodecRegistry()
	r.Register("json", JSONCodec{})
	r.Register("yaml", YAMLCodec{})
	return r
}

// Register adds or replaces the codec for a format.
func (r *CodecRegistry) Register(format string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = c
}

// Get returns the codec for a format, or UnknownFormatError when none is
// registered.
func (r *CodecRegistry) Get(format string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[format]
	if !ok {
		return nil, &UnknownFormatError{Format: format}
	}
	return c, nil
}

// JSONCodec is the built-in JSON codec.
type JSONCodec struct{}

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// YAMLCodec is the built-in YAML codec.
type YAMLCodec struct{}

// Marshal implements Codec.
func (YAMLCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal implements Codec.
func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

package tool

import (
	"context"
	"time"

	"github.com/hupe1980/actionmesh/internal/util"
)

// Func is the signature of a registered callable. Arguments arrive as a
// decoded map; exact argument-name correspondence is required and argument
// mismatches surface as errors from the function itself. The returned value
// is opaque to the engine.
type Func func(ctx context.Context, args map[string]any) (any, error)

// PreProcessor transforms arguments before the function runs. Its output is
// merged over the original arguments.
type PreProcessor func(ctx context.Context, args map[string]any) (map[string]any, error)

// PostProcessor transforms the function's raw return value. Its output is
// what gets persisted on the action.
type PostProcessor func(ctx context.Context, result any) (any, error)

// Parser converts the post-processed result into the caller-visible return
// value. It affects only what Invoke returns, never the persisted result.
type Parser func(result any) (any, error)

// Tool is a registered callable plus optional processors and a result
// parser. Tools are immutable after construction and safe for concurrent
// use by any number of actions.
type Tool struct {
	name        string
	description string
	fn          Func
	pre         PreProcessor
	post        PostProcessor
	parser      Parser
	schema      map[string]any
	timeout     time.Duration
}

// Option customizes a Tool at construction time.
type Option func(*Tool)

// WithDescription sets the human-readable description.
func WithDescription(description string) Option {
	return func(t *Tool) { t.description = description }
}

// WithPreProcessor sets the argument pre-processor.
func WithPreProcessor(pre PreProcessor) Option {
	return func(t *Tool) { t.pre = pre }
}

// WithPostProcessor sets the result post-processor.
func WithPostProcessor(post PostProcessor) Option {
	return func(t *Tool) { t.post = post }
}

// WithParser sets the caller-visible result parser.
func WithParser(parser Parser) Option {
	return func(t *Tool) { t.parser = parser }
}

// WithSchema sets an explicit JSON-schema-like parameter description.
func WithSchema(schema map[string]any) Option {
	return func(t *Tool) { t.schema = schema }
}

// WithSchemaFromStruct derives the parameter schema from an argument
// container struct using reflection.
func WithSchemaFromStruct(prototype any) Option {
	return func(t *Tool) { t.schema = util.CreateSchema(prototype) }
}

// WithTimeout bounds a single invocation of the tool. On expiry the action
// fails with a timeout error while the underlying call is abandoned; callers
// needing cooperative cancellation should honor the context passed to Func.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Tool) { t.timeout = timeout }
}

// New constructs a Tool with an explicit name.
func New(name string, fn Func, opts ...Option) *Tool {
	t := &Tool{
		name:   name,
		fn:     fn,
		schema: map[string]any{"type": "object", "properties": map[string]any{}},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromFunc constructs a Tool from a bare function, deriving the
// registration name from the function symbol. Closures get compiler names
// like "func1"; use New with an explicit name for those.
func NewFromFunc(fn Func, opts ...Option) *Tool {
	return New(util.FuncName(fn), fn, opts...)
}

// Name returns the unique registration name.
func (t *Tool) Name() string { return t.name }

// Description returns the human-readable description.
func (t *Tool) Description() string { return t.description }

// Schema returns the parameter schema.
func (t *Tool) Schema() map[string]any { return t.schema }

// Timeout returns the per-invocation timeout, zero when unbounded.
func (t *Tool) Timeout() time.Duration { return t.timeout }

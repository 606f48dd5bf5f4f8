package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/actionmesh/logging"
)

// Request is the single, explicit invocation payload shape: a tool name plus
// a decoded argument map. Encoded string payloads are converted up front by
// ParseRequest, keeping the ToolManager format-agnostic.
type Request struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ParseRequest decodes an encoded invocation payload into a Request. The
// payload must be a JSON object carrying the tool name under "name" (or
// "function") and an optional "arguments" member that is either an object or
// a JSON-encoded object string.
func ParseRequest(encoded string) (Request, error) {
	if !gjson.Valid(encoded) {
		return Request{}, &ValidationError{Field: "payload", Value: encoded, Message: "payload is not valid JSON"}
	}
	root := gjson.Parse(encoded)
	if !root.IsObject() {
		return Request{}, &ValidationError{Field: "payload", Value: encoded, Message: "payload must be a JSON object"}
	}

	name := root.Get("name")
	if !name.Exists() {
		name = root.Get("function")
	}
	if name.Type != gjson.String || name.Str == "" {
		return Request{}, &ValidationError{Field: "name", Message: "missing or non-string tool name"}
	}

	args := root.Get("arguments")
	arguments := map[string]any{}
	switch {
	case !args.Exists() || args.Type == gjson.Null:
		// No arguments supplied.
	case args.IsObject():
		arguments, _ = args.Value().(map[string]any)
	case args.Type == gjson.String:
		inner := gjson.Parse(args.Str)
		if !inner.IsObject() {
			return Request{}, &ValidationError{Field: "arguments", Value: args.Str, Message: "encoded arguments must decode to an object"}
		}
		arguments, _ = inner.Value().(map[string]any)
	default:
		return Request{}, &ValidationError{Field: "arguments", Value: args.Raw, Message: "arguments must be an object or an encoded object string"}
	}

	return Request{Name: name.Str, Arguments: arguments}, nil
}

// ToolManager is an explicitly constructed tool registry. It is never a
// process-global: each engine carries its own manager so multiple
// independent engines can coexist and tests stay deterministic.
type ToolManager struct {
	mu       sync.RWMutex
	registry map[string]*Tool
	logger   logging.Logger
}

// ManagerOption customizes a ToolManager at construction time.
type ManagerOption func(*ToolManager)

// WithLogger attaches a structured logger to the manager.
func WithLogger(logger logging.Logger) ManagerOption {
	return func(m *ToolManager) { m.logger = logger }
}

// NewToolManager creates an empty registry, optionally pre-registering tools.
func NewToolManager(opts ...ManagerOption) *ToolManager {
	m := &ToolManager{
		registry: make(map[string]*Tool),
		logger:   logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a tool to the registry. Registering a name that already
// exists is an error unless update is true.
func (m *ToolManager) Register(t *Tool, update bool) error {
	if t == nil || t.fn == nil {
		return fmt.Errorf("cannot register a nil tool")
	}
	if t.name == "" {
		return fmt.Errorf("cannot register a tool without a name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.registry[t.name]; exists && !update {
		return fmt.Errorf("tool %q is already registered", t.name)
	}
	m.registry[t.name] = t
	m.logger.Debug("tool.registered", "tool", t.name)
	return nil
}

// RegisterFunc wraps a bare callable as a Tool, deriving its name from the
// function symbol, and registers it.
func (m *ToolManager) RegisterFunc(fn Func, opts ...Option) (*Tool, error) {
	t := NewFromFunc(fn, opts...)
	if err := m.Register(t, false); err != nil {
		return nil, err
	}
	return t, nil
}

// Has reports whether a tool name is registered.
func (m *ToolManager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registry[name]
	return ok
}

// Get returns the registered tool for a name.
func (m *ToolManager) Get(name string) (*Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.registry[name]
	return t, ok
}

// Tools returns a snapshot of every registered tool.
func (m *ToolManager) Tools() []*Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Tool, 0, len(m.registry))
	for _, t := range m.registry {
		out = append(out, t)
	}
	return out
}

// Match resolves a request into a bound FunctionCalling. An unregistered
// name is a ValidationError and no action is constructed. Argument-name
// correspondence is not checked here: fuzzy key correction belongs to an
// external validation collaborator, and exact mismatches surface from the
// callable itself.
func (m *ToolManager) Match(req Request) (*FunctionCalling, error) {
	m.mu.RLock()
	t, ok := m.registry[req.Name]
	m.mu.RUnlock()
	if !ok {
		return nil, &ValidationError{Field: "name", Value: req.Name, Message: fmt.Sprintf("tool %q is not registered", req.Name)}
	}
	return NewFunctionCalling(t, req.Arguments), nil
}

// MatchString decodes an encoded payload and resolves it in one step.
func (m *ToolManager) MatchString(encoded string) (*FunctionCalling, error) {
	req, err := ParseRequest(encoded)
	if err != nil {
		return nil, err
	}
	return m.Match(req)
}

// Invoke matches and immediately invokes a request, returning the action for
// inspection. The action's own failure is recorded on it, not returned;
// Invoke errors only for validation failures.
func (m *ToolManager) Invoke(ctx context.Context, req Request) (*FunctionCalling, error) {
	fc, err := m.Match(req)
	if err != nil {
		return nil, err
	}
	if _, invErr := fc.Invoke(ctx); invErr != nil {
		m.logger.Warn("tool.invoke.failed", "tool", req.Name, "error", invErr.Error())
	}
	return fc, nil
}

package actionmesh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actionmesh/engine"
	"github.com/hupe1980/actionmesh/tool"
)

func addTool() *tool.Tool {
	return tool.New("add", func(ctx context.Context, args map[string]any) (any, error) {
		x, _ := args["x"].(float64)
		y, _ := args["y"].(float64)
		return x + y, nil
	}, tool.WithDescription("adds two numbers"))
}

func TestActionMesh_SubmitAndForward(t *testing.T) {
	mesh := New()
	require.NoError(t, mesh.RegisterTool(addTool(), false))

	id, err := mesh.Submit(tool.Request{Name: "add", Arguments: map[string]any{"x": 1.0, "y": 2.0}})
	require.NoError(t, err)
	require.NoError(t, mesh.Forward(context.Background()))

	fc, ok := mesh.Get(id)
	require.True(t, ok)
	assert.Equal(t, tool.StatusCompleted, fc.Status())
	assert.Equal(t, 3.0, fc.Result())
}

func TestActionMesh_SubmitString(t *testing.T) {
	mesh := New()
	require.NoError(t, mesh.RegisterTool(addTool(), false))

	id, err := mesh.SubmitString(`{"name": "add", "arguments": {"x": 4, "y": 6}}`)
	require.NoError(t, err)
	require.NoError(t, mesh.Forward(context.Background()))

	fc, _ := mesh.Get(id)
	assert.Equal(t, 10.0, fc.Result())
}

func TestActionMesh_SubmitUnknownTool(t *testing.T) {
	mesh := New()

	_, err := mesh.Submit(tool.Request{Name: "missing"})
	var verr *tool.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, 0, mesh.Stats().Total, "nothing is tracked on a failed match")
}

func TestActionMesh_RegisterFunc(t *testing.T) {
	mesh := New()

	registered, err := mesh.RegisterFunc(func(ctx context.Context, args map[string]any) (any, error) {
		return "pong", nil
	}, tool.WithDescription("liveness probe"))
	require.NoError(t, err)

	id, err := mesh.Submit(tool.Request{Name: registered.Name()})
	require.NoError(t, err)
	require.NoError(t, mesh.Forward(context.Background()))

	fc, _ := mesh.Get(id)
	assert.Equal(t, "pong", fc.Result())
}

func TestActionMesh_Stats(t *testing.T) {
	mesh := New(func(o *Options) {
		o.EngineConfig = engine.Config{Capacity: 2, TokensPerAction: 1}
	})
	require.NoError(t, mesh.RegisterTool(addTool(), false))
	boom := tool.New("boom", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	})
	require.NoError(t, mesh.RegisterTool(boom, false))

	_, err := mesh.Submit(tool.Request{Name: "add", Arguments: map[string]any{"x": 1.0, "y": 1.0}})
	require.NoError(t, err)
	_, err = mesh.Submit(tool.Request{Name: "boom"})
	require.NoError(t, err)
	require.NoError(t, mesh.Forward(context.Background()))

	s := mesh.Stats()
	assert.Equal(t, engine.Stats{Total: 2, Completed: 1, Failed: 1}, s)
}

func TestActionMesh_WithBudgets(t *testing.T) {
	mesh := New(func(o *Options) {
		o.LimitRequests = 100
		o.LimitTokens = 10000
	})
	require.NoError(t, mesh.RegisterTool(addTool(), false))

	id, err := mesh.Submit(tool.Request{Name: "add", Arguments: map[string]any{"x": 2.0, "y": 5.0}})
	require.NoError(t, err)
	require.NoError(t, mesh.Forward(context.Background()))

	fc, _ := mesh.Get(id)
	assert.Equal(t, 7.0, fc.Result())
}

package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actionmesh/core"
	"github.com/hupe1980/actionmesh/tool"
)

func newTestExecutor() *Executor {
	return NewExecutor(NewProcessor(nil))
}

func TestExecutor_AppendAndForward(t *testing.T) {
	e := newTestExecutor()

	fc := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": "hello"})
	require.NoError(t, e.Append(fc))

	got, ok := e.Get(fc.Identity())
	require.True(t, ok)
	assert.Same(t, fc, got)

	require.NoError(t, e.Forward(context.Background()))

	assert.Equal(t, tool.StatusCompleted, fc.Status())
	assert.Equal(t, "hello", fc.Result())
}

func TestExecutor_AppendNil(t *testing.T) {
	e := newTestExecutor()

	err := e.Append(nil)
	var verr *tool.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
}

func TestExecutor_AtMostOnceDispatch(t *testing.T) {
	var calls int32
	counting := tool.New("counting", func(ctx context.Context, args map[string]any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	e := newTestExecutor()
	fc := tool.NewFunctionCalling(counting, nil)
	require.NoError(t, e.Append(fc))
	require.NoError(t, e.Forward(context.Background()))

	// Re-appending and re-forwarding a settled action never re-runs it.
	require.NoError(t, e.Append(fc))
	require.NoError(t, e.Forward(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, tool.StatusCompleted, fc.Status())
}

func TestExecutor_Remove(t *testing.T) {
	e := newTestExecutor()

	kept := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": 1})
	dropped := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": 2})
	require.NoError(t, e.Append(kept))
	require.NoError(t, e.Append(dropped))

	e.Remove(dropped.Identity())
	_, ok := e.Get(dropped.Identity())
	assert.False(t, ok)

	require.NoError(t, e.Forward(context.Background()))
	assert.Equal(t, tool.StatusCompleted, kept.Status())
	assert.Equal(t, tool.StatusPending, dropped.Status(), "removed actions are never dispatched")
}

func TestExecutor_FilteredViews(t *testing.T) {
	boom := tool.New("boom", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	})

	e := newTestExecutor()
	ok1 := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": "a"})
	bad := tool.NewFunctionCalling(boom, nil)
	ok2 := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": "b"})
	waiting := tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": "c"})

	require.NoError(t, e.Append(ok1))
	require.NoError(t, e.Append(bad))
	require.NoError(t, e.Append(ok2))
	require.NoError(t, e.Forward(context.Background()))
	require.NoError(t, e.Append(waiting))

	completed := e.Completed()
	require.Len(t, completed, 2)
	assert.Same(t, ok1, completed[0], "views keep insertion order")
	assert.Same(t, ok2, completed[1])

	failed := e.Failed()
	require.Len(t, failed, 1)
	assert.Same(t, bad, failed[0])

	pending := e.Pending()
	require.Len(t, pending, 1)
	assert.Same(t, waiting, pending[0])

	assert.Len(t, e.Actions(), 4)
}

func TestExecutor_Stats(t *testing.T) {
	boom := tool.New("boom", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	})

	e := newTestExecutor()
	require.NoError(t, e.Append(tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": 1})))
	require.NoError(t, e.Append(tool.NewFunctionCalling(boom, nil)))
	require.NoError(t, e.Forward(context.Background()))
	require.NoError(t, e.Append(tool.NewFunctionCalling(echoTool("echo"), map[string]any{"value": 2})))

	s := e.Stats()
	assert.Equal(t, Stats{Total: 3, Pending: 1, Completed: 1, Failed: 1}, s)
}

func TestExecutor_GetUnknownID(t *testing.T) {
	e := newTestExecutor()
	_, ok := e.Get(core.NewID())
	assert.False(t, ok)
}

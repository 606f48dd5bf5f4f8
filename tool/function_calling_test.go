package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionCalling_Success(t *testing.T) {
	fc := NewFunctionCalling(New("add", addNumbers), map[string]any{"x": 1.0, "y": 2.0})
	assert.Equal(t, StatusPending, fc.Status())

	out, err := fc.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)
	assert.Equal(t, StatusCompleted, fc.Status())
	assert.Equal(t, 3.0, fc.Result())
	assert.Nil(t, fc.Err())
	assert.GreaterOrEqual(t, fc.ExecutionTime(), time.Duration(0))
}

func TestFunctionCalling_FailureIsCapturedNotRaised(t *testing.T) {
	boom := New("boom", func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("exploded")
	})
	fc := NewFunctionCalling(boom, nil)

	_, err := fc.Invoke(context.Background())
	assert.Error(t, err)

	assert.Equal(t, StatusFailed, fc.Status())
	require.NotNil(t, fc.Err())
	assert.NotEmpty(t, fc.Err().Error())

	var invErr *InvocationError
	require.ErrorAs(t, fc.Err(), &invErr)
	assert.Equal(t, "function", invErr.Stage)
}

func TestFunctionCalling_PanicIsRecovered(t *testing.T) {
	panicky := New("panicky", func(context.Context, map[string]any) (any, error) {
		panic("kaboom")
	})
	fc := NewFunctionCalling(panicky, nil)

	assert.NotPanics(t, func() {
		_, _ = fc.Invoke(context.Background())
	})
	assert.Equal(t, StatusFailed, fc.Status())
	assert.Contains(t, fc.Err().Error(), "panic recovered")
}

func TestFunctionCalling_TerminalStatesAreSticky(t *testing.T) {
	fc := NewFunctionCalling(New("add", addNumbers), map[string]any{"x": 1.0, "y": 1.0})

	_, err := fc.Invoke(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, fc.Status())

	assert.False(t, fc.Fail(errors.New("late failure")))
	assert.Equal(t, StatusCompleted, fc.Status())

	// Re-invoking a terminal action is a no-op returning the recorded outcome.
	out, err := fc.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, out)
}

func TestFunctionCalling_MarkProcessing(t *testing.T) {
	fc := NewFunctionCalling(New("add", addNumbers), nil)

	assert.True(t, fc.MarkProcessing())
	assert.False(t, fc.MarkProcessing(), "second transition must lose")
	assert.Equal(t, StatusProcessing, fc.Status())

	assert.True(t, fc.Fail(errors.New("gave up")))
	assert.Equal(t, StatusFailed, fc.Status())
}

// -------------------- Processor pipeline ordering --------------------

func TestFunctionCalling_PrePostParserOrdering(t *testing.T) {
	var trace []string

	tl := New("pipeline",
		func(_ context.Context, args map[string]any) (any, error) {
			trace = append(trace, "function")
			// Pre-processor output must be visible to the function.
			assert.Equal(t, true, args["prepared"])
			return "raw", nil
		},
		WithPreProcessor(func(_ context.Context, args map[string]any) (map[string]any, error) {
			trace = append(trace, "pre")
			return map[string]any{"prepared": true}, nil
		}),
		WithPostProcessor(func(_ context.Context, result any) (any, error) {
			trace = append(trace, "post")
			// Post-processor receives the function's raw return.
			assert.Equal(t, "raw", result)
			return "post:" + result.(string), nil
		}),
		WithParser(func(result any) (any, error) {
			trace = append(trace, "parse")
			return "parsed:" + result.(string), nil
		}),
	)

	fc := NewFunctionCalling(tl, map[string]any{"input": 1})
	out, err := fc.Invoke(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"pre", "function", "post", "parse"}, trace)
	// The parser shapes only the caller-visible value; the persisted result
	// stays unparsed.
	assert.Equal(t, "parsed:post:raw", out)
	assert.Equal(t, "post:raw", fc.Result())
}

func TestFunctionCalling_PreProcessorFailure(t *testing.T) {
	tl := New("pipeline", addNumbers,
		WithPreProcessor(func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("bad args")
		}),
	)
	fc := NewFunctionCalling(tl, nil)

	_, err := fc.Invoke(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StatusFailed, fc.Status())

	var invErr *InvocationError
	require.ErrorAs(t, fc.Err(), &invErr)
	assert.Equal(t, "pre_processor", invErr.Stage)
}

func TestFunctionCalling_PostProcessorFailure(t *testing.T) {
	tl := New("pipeline", addNumbers,
		WithPostProcessor(func(context.Context, any) (any, error) {
			return nil, errors.New("mangled")
		}),
	)
	fc := NewFunctionCalling(tl, nil)

	_, err := fc.Invoke(context.Background())
	assert.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, fc.Err(), &invErr)
	assert.Equal(t, "post_processor", invErr.Stage)
}

func TestFunctionCalling_ParserFailureKeepsActionCompleted(t *testing.T) {
	tl := New("pipeline",
		func(context.Context, map[string]any) (any, error) { return "raw", nil },
		WithParser(func(any) (any, error) { return nil, errors.New("unparseable") }),
	)
	fc := NewFunctionCalling(tl, nil)

	out, err := fc.Invoke(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "raw", out, "caller falls back to the unparsed value")
	assert.Equal(t, StatusCompleted, fc.Status())
	assert.Equal(t, "raw", fc.Result())
}

func TestFunctionCalling_Timeout(t *testing.T) {
	slow := New("slow",
		func(ctx context.Context, _ map[string]any) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		WithTimeout(20*time.Millisecond),
	)
	fc := NewFunctionCalling(slow, nil)

	start := time.Now()
	_, err := fc.Invoke(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, StatusFailed, fc.Status())
	var invErr *InvocationError
	require.ErrorAs(t, fc.Err(), &invErr)
	assert.Equal(t, "timeout", invErr.Stage)
}

func TestFunctionCalling_ArgumentsAreCopied(t *testing.T) {
	args := map[string]any{"x": 1.0}
	fc := NewFunctionCalling(New("add", addNumbers), args)

	args["x"] = 99.0
	assert.Equal(t, 1.0, fc.Arguments()["x"])

	fc.Arguments()["x"] = 42.0
	assert.Equal(t, 1.0, fc.Arguments()["x"])
}

func TestFunctionCalling_IsPileAddressable(t *testing.T) {
	fc := NewFunctionCalling(New("add", addNumbers), nil)
	assert.True(t, fc.Identity().Valid())
	assert.False(t, fc.Created().IsZero())
	_ = fmt.Sprintf("%s", fc.Identity())
}

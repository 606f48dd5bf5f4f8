package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Construction & Schema --------------------

type sumArgs struct {
	X float64 `json:"x" description:"First addend"`
	Y float64 `json:"y" description:"Second addend"`
}

func addNumbers(_ context.Context, args map[string]any) (any, error) {
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)
	return x + y, nil
}

func TestNew_Defaults(t *testing.T) {
	tl := New("add", addNumbers)
	assert.Equal(t, "add", tl.Name())
	assert.Equal(t, "object", tl.Schema()["type"])
	assert.Zero(t, tl.Timeout())
}

func TestNewFromFunc_DerivesName(t *testing.T) {
	tl := NewFromFunc(addNumbers)
	assert.Equal(t, "addNumbers", tl.Name())
}

func TestWithSchemaFromStruct(t *testing.T) {
	tl := New("add", addNumbers, WithSchemaFromStruct(sumArgs{}))

	props, ok := tl.Schema()["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "x")
	assert.Contains(t, props, "y")

	req, _ := tl.Schema()["required"].([]string)
	assert.ElementsMatch(t, []string{"x", "y"}, req)
}

func TestWithDescription(t *testing.T) {
	tl := New("add", addNumbers, WithDescription("Add two numbers"))
	assert.Equal(t, "Add two numbers", tl.Description())
}

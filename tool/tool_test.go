package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Tool = (*FunctionTool)(nil)

func newToolCtx() *core.ToolContext {
	return core.NewToolContext(context.Background(), core.AgentInfo{ID: "a1", Name: "Agent"}, "fc-1", logging.NoOpLogger{})
}

func sumTool(fn func(*core.ToolContext, map[string]any) (any, error)) *FunctionTool {
	return NewFunctionTool("calculate_sum", "Add two numbers", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, fn)
}

func TestFunctionTool_Success(t *testing.T) {
	tl := sumTool(func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	res, err := tl.Call(newToolCtx(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res)
	assert.Equal(t, "calculate_sum", tl.Name())
	assert.Equal(t, "Add two numbers", tl.Description())
}

func TestFunctionTool_ValidationError(t *testing.T) {
	called := false
	tl := sumTool(func(*core.ToolContext, map[string]any) (any, error) {
		called = true
		return nil, nil
	})

	_, err := tl.Call(newToolCtx(), map[string]any{"a": 1.0})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.False(t, called)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tl := sumTool(func(*core.ToolContext, map[string]any) (any, error) {
		return nil, errors.New("overflow")
	})

	_, err := tl.Call(newToolCtx(), map[string]any{"a": 1.0, "b": 2.0})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "overflow", toolErr.Message)
}

func TestFunctionTool_ToolErrorPassthrough(t *testing.T) {
	tl := sumTool(func(*core.ToolContext, map[string]any) (any, error) {
		return nil, NewToolError("calculate_sum", "quota exceeded", "QUOTA")
	})

	_, err := tl.Call(newToolCtx(), map[string]any{"a": 1.0, "b": 2.0})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "QUOTA", toolErr.Code)
}

func TestToolErrorFormatting(t *testing.T) {
	assert.Equal(t, "tool error [X] in t: m", NewToolError("t", "m", "X").Error())
	assert.Equal(t, "tool error in t: m", NewToolError("t", "m", "").Error())
}

func TestLookup(t *testing.T) {
	w, ok := Lookup("Weather")
	require.True(t, ok)
	assert.Equal(t, "get_weather", w.Name())

	tm, ok := Lookup(" TIME ")
	require.True(t, ok)
	assert.Equal(t, "get_current_time", tm.Name())

	alias, ok := Lookup("get_weather")
	require.True(t, ok)
	assert.Equal(t, "get_weather", alias.Name())

	_, ok = Lookup("gmail")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	refs := []core.ToolRef{
		{Name: "weather"},
		{Name: "GMAIL_FETCH_EMAILS"},
		{Descriptor: map[string]any{"name": "custom", "url": "https://x"}},
		{Name: "time"},
		{Name: "Weather"},
	}

	resolved, passthrough := Resolve(refs)

	require.Len(t, resolved, 2)
	assert.Equal(t, "get_weather", resolved[0].Name())
	assert.Equal(t, "get_current_time", resolved[1].Name())

	require.Len(t, passthrough, 2)
	assert.Equal(t, "GMAIL_FETCH_EMAILS", passthrough[0].Name)
	assert.Equal(t, "custom", passthrough[1].ToolName())
}

func TestResolve_Empty(t *testing.T) {
	resolved, passthrough := Resolve(nil)
	assert.Empty(t, resolved)
	assert.Empty(t, passthrough)
}

func TestWeatherTool(t *testing.T) {
	w := NewWeatherTool()

	res, err := w.Call(newToolCtx(), map[string]any{"city": "new york"})
	require.NoError(t, err)
	assert.Equal(t, "success", res.(map[string]any)["status"])
	assert.Contains(t, res.(map[string]any)["report"], "sunny with a temperature of 25 degrees Celsius")

	res, err = w.Call(newToolCtx(), map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "error", res.(map[string]any)["status"])
	assert.Equal(t, "Weather information for 'Paris' is not available.", res.(map[string]any)["error_message"])

	_, err = w.Call(newToolCtx(), map[string]any{})
	assert.Error(t, err)

	_, err = w.Call(newToolCtx(), map[string]any{"city": 42.0})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)

	assert.Equal(t, []string{"city"}, w.Parameters()["required"])
}

func TestTimeTool(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC) }
	defer func() { now = orig }()

	tm := NewTimeTool()

	res, err := tm.Call(newToolCtx(), map[string]any{"city": "New York"})
	require.NoError(t, err)
	assert.Equal(t, "The current time in New York is 2024-01-15 12:30:00 EST-0500", res.(map[string]any)["report"])

	res, err = tm.Call(newToolCtx(), map[string]any{"city": "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I don't have timezone information for Berlin.", res.(map[string]any)["error_message"])
}

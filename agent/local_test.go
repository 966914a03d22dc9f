package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAgent_DefaultPrompts(t *testing.T) {
	m := model.NewMockModel("m1", "mock")
	a := NewLocalAgent("a1", "Helper", m)

	reply, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi", reply)
	assert.Equal(t, "a1", a.ID())
	assert.Equal(t, "Helper", a.Name())

	req := m.Requests()[0]
	require.Len(t, req.Contents, 2)
	assert.Equal(t, DefaultSystemPrompt, req.Contents[0].Text())
	assert.Equal(t, "hi", req.Contents[1].Text())
}

func TestLocalAgent_ComposedPrompts(t *testing.T) {
	m := model.NewMockModel("m1", "mock")
	a := NewLocalAgent("a1", "Helper", m, func(o *LocalAgentOptions) {
		o.SystemPrompt = NewInstructionFromText("You are {{.agent_name}} running on {{.model}}.")
		o.Instructions = NewInstructionFromText("Answer in one sentence.")
		o.Description = "A weather bot."
		o.UserPrompt = NewInstructionFromText("Question from the user:")
		o.Passthrough = []core.ToolRef{{Name: "GMAIL_FETCH"}, {Descriptor: map[string]any{"app": "x"}}}
	})

	_, err := a.Run(context.Background(), "is it raining?")
	require.NoError(t, err)

	req := m.Requests()[0]
	assert.Equal(t,
		"You are Helper running on m1.\n\nAnswer in one sentence.\n\nA weather bot.\n\nDeclared integrations without a local implementation: GMAIL_FETCH.",
		req.Contents[0].Text())
	assert.Equal(t, "Question from the user:\n\nis it raining?", req.Contents[1].Text())
	assert.Len(t, a.Passthrough(), 2)
}

func TestLocalAgent_DynamicInstruction(t *testing.T) {
	m := model.NewMockModel("m1", "mock")
	a := NewLocalAgent("a1", "Helper", m, func(o *LocalAgentOptions) {
		o.Instructions = NewInstructionFromFunc(func(_ context.Context, vars map[string]any) (string, error) {
			return "Agent id is " + vars["agent_id"].(string), nil
		})
	})

	_, err := a.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, m.Requests()[0].Contents[0].Text(), "Agent id is a1")
}

func TestLocalAgent_BrokenTemplate(t *testing.T) {
	a := NewLocalAgent("a1", "Helper", model.NewMockModel("m1", "mock"), func(o *LocalAgentOptions) {
		o.SystemPrompt = NewInstructionFromText("{{.nope}}")
	})

	_, err := a.Run(context.Background(), "hi")
	assert.Error(t, err)
}

func TestLocalAgent_UsesTools(t *testing.T) {
	m := model.NewMockModel("m1", "mock")
	m.Script(
		model.Response{Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "get_weather", Arguments: `{"city":"New York"}`}},
		}}},
		model.Response{Content: core.NewTextContent("assistant", "Sunny, 25C.")},
	)

	a := NewLocalAgent("a1", "Helper", m, func(o *LocalAgentOptions) {
		o.Tools = []tool.Tool{tool.NewWeatherTool()}
	})

	reply, err := a.Run(context.Background(), "weather in NY?")
	require.NoError(t, err)
	assert.Equal(t, "Sunny, 25C.", reply)
	assert.Equal(t, []string{"get_weather"}, a.Tools())
}

func TestLocalAgent_ModelFailure(t *testing.T) {
	m := model.NewMockModel("m1", "mock")
	m.FailWith(errors.New("quota"))

	_, err := NewLocalAgent("a1", "Helper", m).Run(context.Background(), "hi")
	assert.EqualError(t, err, "quota")
}

func TestInstruction(t *testing.T) {
	static := NewInstructionFromText("hello {{.who}}")
	assert.True(t, static.IsStatic())
	out, err := static.Resolve(context.Background(), map[string]any{"who": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	var zero Instruction
	assert.True(t, zero.IsZero())

	dyn := NewInstructionFromProvider(Func(func(context.Context, map[string]any) (string, error) {
		return "", errors.New("unavailable")
	}))
	assert.False(t, dyn.IsStatic())
	_, err = dyn.Resolve(context.Background(), nil)
	assert.Error(t, err)
}

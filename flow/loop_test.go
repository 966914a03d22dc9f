package flow

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

var agentInfo = core.AgentInfo{ID: "a1", Name: "Agent"}

func toolCallResponse(id, name, args string) model.Response {
	return model.Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}},
		}},
		FinishReason: "tool_calls",
	}
}

func userTurn(text string) []core.Content {
	return []core.Content{core.NewTextContent("system", "sys"), core.NewTextContent("user", text)}
}

func TestLoop_PlainAnswer(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	l := New(m, nil)

	res, err := l.Run(context.Background(), agentInfo, userTurn("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi", res.Text)
	assert.Equal(t, 1, res.Turns)
	assert.Len(t, res.Contents, 3)
	assert.Empty(t, m.Requests()[0].Tools)
}

func TestLoop_ToolRoundTrip(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	m.Script(
		toolCallResponse("c1", "get_weather", `{"city":"New York"}`),
		model.Response{Content: core.NewTextContent("assistant", "It is sunny."), FinishReason: "stop"},
	)

	l := New(m, []tool.Tool{tool.NewWeatherTool()})

	res, err := l.Run(context.Background(), agentInfo, userTurn("weather?"))
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", res.Text)
	assert.Equal(t, 2, res.Turns)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "get_weather", reqs[0].Tools[0].Function.Name)

	last := reqs[1].Contents[len(reqs[1].Contents)-1]
	assert.Equal(t, "tool", last.Role)
	fr := last.Parts[0].(core.FunctionResponsePart).FunctionResponse
	assert.Equal(t, "c1", fr.ID)
	assert.Empty(t, fr.Error)
	assert.Equal(t, "success", fr.Response.(map[string]any)["status"])
}

func TestLoop_UnknownToolIsReportedToModel(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	m.Script(
		toolCallResponse("c1", "send_email", `{}`),
		model.Response{Content: core.NewTextContent("assistant", "I cannot send email."), FinishReason: "stop"},
	)

	res, err := New(m, nil).Run(context.Background(), agentInfo, userTurn("mail bob"))
	require.NoError(t, err)
	assert.Equal(t, "I cannot send email.", res.Text)

	last := m.Requests()[1].Contents
	fr := last[len(last)-1].Parts[0].(core.FunctionResponsePart).FunctionResponse
	assert.Contains(t, fr.Error, "NOT_FOUND")
}

func TestLoop_MaxTurns(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	for i := 0; i < 5; i++ {
		m.Script(toolCallResponse("c", "get_time", `{"city":"New York"}`))
	}

	l := New(m, []tool.Tool{tool.NewTimeTool()}, func(o *Options) { o.MaxTurns = 2 })

	res, err := l.Run(context.Background(), agentInfo, userTurn("loop"))
	assert.ErrorIs(t, err, ErrMaxTurns)
	assert.Equal(t, 2, res.Turns)
	assert.Len(t, m.Requests(), 2)
}

func TestLoop_ModelError(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	boom := errors.New("upstream 503")
	m.FailWith(boom)

	_, err := New(m, nil).Run(context.Background(), agentInfo, userTurn("hi"))
	assert.ErrorIs(t, err, boom)
}

func TestLoop_DoesNotMutateInput(t *testing.T) {
	in := userTurn("hi")
	_, err := New(model.NewMockModel("m", "mock"), nil).Run(context.Background(), agentInfo, in)
	require.NoError(t, err)
	assert.Len(t, in, 2)
}

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*StructuredLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestStructuredLogger_KeyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: buf}).
		WithComponent("registry").
		WithContext("instance", "test")

	l.Info("registry.register.ok", "agent_id", "a1")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "registry.register.ok", lines[0]["msg"])
	assert.Equal(t, "registry", lines[0]["component"])
	assert.Equal(t, "test", lines[0]["instance"])
	assert.Equal(t, "a1", lines[0]["agent_id"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Output: buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestStructuredLogger_WithComponentDoesNotLeak(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(&LoggerConfig{Output: buf})
	_ = base.WithContext("k", "v")

	base.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "k")
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Output: buf})

	l.LogDispatch("s1", "a1", "local", 5*time.Millisecond, nil)
	l.LogDispatch("s1", "r1", "remote", time.Second, errors.New("timeout"))
	l.LogToolCall("get_weather", time.Millisecond, nil)
	l.LogLLMCall("gpt", 12, time.Millisecond, errors.New("rate limited"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "dispatch.completed", lines[0]["msg"])
	assert.Equal(t, "dispatch.failed", lines[1]["msg"])
	assert.Equal(t, "timeout", lines[1]["error"])
	assert.Equal(t, "tool.call.completed", lines[2]["msg"])
	assert.Equal(t, "llm.call.failed", lines[3]["msg"])
	assert.Equal(t, "ERROR", lines[3]["level"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOrNoOp(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))
	l := NewDefaultSlogLogger()
	assert.Same(t, l, OrNoOp(l))
}

type recordingLogger struct {
	NoOpLogger
	errors []string
	infos  []string
}

func (r *recordingLogger) Info(msg string, _ ...any)  { r.infos = append(r.infos, msg) }
func (r *recordingLogger) Error(msg string, _ ...any) { r.errors = append(r.errors, msg) }

func TestHelpers_FallbackToPlainLogger(t *testing.T) {
	rec := &recordingLogger{}

	Dispatch(rec, "s1", "a1", "local", time.Millisecond, nil)
	ToolCall(rec, "get_time", time.Millisecond, errors.New("x"))
	LLMCall(rec, "m", 1, time.Millisecond, nil)
	Dispatch(nil, "s1", "a1", "local", time.Millisecond, nil)

	assert.Equal(t, []string{"dispatch.completed", "llm.call.completed"}, rec.infos)
	assert.Equal(t, []string{"tool.call.failed"}, rec.errors)
}

func TestHelpers_UseDomainLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Dispatch(NewLogger(&LoggerConfig{Output: buf}), "s1", "a1", "local", time.Millisecond, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "s1", lines[0]["session_id"])
}

package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAgentConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AgentConfig
		field   string
		wantErr bool
	}{
		{name: "local ok", cfg: AgentConfig{ID: "a1", Name: "Test", DestinationType: DestinationLocal}},
		{name: "unknown type treated as local", cfg: AgentConfig{ID: "a1", Name: "Test", DestinationType: "adk"}},
		{name: "remote ok", cfg: AgentConfig{ID: "r1", Name: "R", DestinationType: DestinationRemote, RemoteURL: "http://peer:9000/run"}},
		{name: "missing id", cfg: AgentConfig{Name: "Test", DestinationType: DestinationLocal}, field: "id", wantErr: true},
		{name: "missing name", cfg: AgentConfig{ID: "a1", DestinationType: DestinationLocal}, field: "name", wantErr: true},
		{name: "missing destination", cfg: AgentConfig{ID: "a1", Name: "Test"}, field: "destinationType", wantErr: true},
		{name: "remote without url", cfg: AgentConfig{ID: "r1", Name: "R", DestinationType: DestinationRemote}, field: "remoteUrl", wantErr: true},
		{name: "remote with blank url", cfg: AgentConfig{ID: "r1", Name: "R", DestinationType: DestinationRemote, RemoteURL: "  "}, field: "remoteUrl", wantErr: true},
		{name: "remote with relative url", cfg: AgentConfig{ID: "r1", Name: "R", DestinationType: DestinationRemote, RemoteURL: "/run"}, field: "remoteUrl", wantErr: true},
		{name: "local with url", cfg: AgentConfig{ID: "a1", Name: "Test", DestinationType: DestinationLocal, RemoteURL: "http://x"}, field: "remoteUrl", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestToolRef_JSON(t *testing.T) {
	raw := `{"id":"a1","name":"Test","destinationType":"local","tools":["weather",{"name":"GMAIL_FETCH","app":"gmail"}]}`

	var cfg AgentConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	require.Len(t, cfg.Tools, 2)

	assert.Equal(t, "weather", cfg.Tools[0].Name)
	assert.False(t, cfg.Tools[0].IsDescriptor())
	assert.True(t, cfg.Tools[1].IsDescriptor())
	assert.Equal(t, "GMAIL_FETCH", cfg.Tools[1].ToolName())

	out, err := json.Marshal(cfg.Tools)
	require.NoError(t, err)
	assert.JSONEq(t, `["weather",{"name":"GMAIL_FETCH","app":"gmail"}]`, string(out))
}

func TestToolRef_JSONRejectsOtherShapes(t *testing.T) {
	var ref ToolRef
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestToolRef_YAML(t *testing.T) {
	doc := `
id: a1
name: Test
destinationType: local
tools:
  - time
  - name: custom
    endpoint: https://example.com
`
	var cfg AgentConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	require.Len(t, cfg.Tools, 2)
	assert.Equal(t, "time", cfg.Tools[0].Name)
	assert.Equal(t, "custom", cfg.Tools[1].ToolName())
}

func TestAgentConfig_Clone(t *testing.T) {
	orig := AgentConfig{
		ID:        "a1",
		Tools:     []ToolRef{{Descriptor: map[string]any{"name": "x"}}},
		Prompts:   map[string]string{"system": "s"},
		SubAgents: []string{"b"},
	}
	cp := orig.Clone()
	cp.Tools[0].Descriptor["name"] = "y"
	cp.Prompts["system"] = "changed"
	cp.SubAgents[0] = "c"

	assert.Equal(t, "x", orig.Tools[0].Descriptor["name"])
	assert.Equal(t, "s", orig.Prompts["system"])
	assert.Equal(t, "b", orig.SubAgents[0])
}

func TestDestinationType_IsRemote(t *testing.T) {
	assert.True(t, DestinationRemote.IsRemote())
	assert.True(t, DestinationType("REMOTE").IsRemote())
	assert.False(t, DestinationLocal.IsRemote())
	assert.False(t, DestinationBackend.IsRemote())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  cors_origins: ["https://app.example"]
dispatch:
  remote_timeout: 3s
  breaker:
    enabled: true
    max_failures: 2
providers:
  openrouter:
    api_key: ${TEST_OPENROUTER_KEY}
agents:
  - id: helper
    name: Helper
    destinationType: local
    provider: mock
    tools: [weather, {name: crm_lookup, app: crm}]
    prompts:
      system: You are {{.agent_name}}.
  - id: peer
    name: Peer
    destinationType: remote
    remoteUrl: http://peer.example/agent
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.RemoteTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLWithExpansion(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TEST_OPENROUTER_KEY", "sk-or-test")

	cfg, err := Load(writeFile(t, "agentrouter.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://app.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.Dispatch.RemoteTimeout)
	assert.True(t, cfg.Dispatch.Breaker.Enabled)
	assert.Equal(t, uint32(2), cfg.BreakerSettings().MaxFailures)
	assert.Equal(t, "sk-or-test", cfg.Credentials().OpenRouterAPIKey)

	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "helper", cfg.Agents[0].ID)
	require.Len(t, cfg.Agents[0].Tools, 2)
	assert.Equal(t, "weather", cfg.Agents[0].Tools[0].Name)
	assert.Equal(t, "crm_lookup", cfg.Agents[0].Tools[1].ToolName())
	assert.Equal(t, "You are {{.agent_name}}.", cfg.Agents[0].Prompts["system"])
	assert.Equal(t, core.DestinationRemote, cfg.Agents[1].DestinationType)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TEST_OPENROUTER_KEY", "from-file")
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("AGENTROUTER_PORT", "7000")
	t.Setenv("AGENTROUTER_CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load(writeFile(t, "agentrouter.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "from-env", cfg.Providers.OpenRouter.APIKey)
	assert.Equal(t, "sk-openai", cfg.Credentials().OpenAIAPIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-dotenv\n"), 0o600))
	t.Setenv("ANTHROPIC_API_KEY", "")
	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Providers.Anthropic.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	err := Parse([]byte("server: [oops"), Default())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"timeout", func(c *Config) { c.Dispatch.RemoteTimeout = 0 }, "remote_timeout"},
		{"turns", func(c *Config) { c.Dispatch.MaxTurns = 0 }, "max_turns"},
		{"telemetry store", func(c *Config) { c.Telemetry.Store = "redis" }, "telemetry.store"},
		{"telemetry path", func(c *Config) {
			c.Telemetry.Store = TelemetrySQLite
			c.Telemetry.Path = ""
		}, "telemetry.path"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"auth secret", func(c *Config) { c.Auth.Enabled = true }, "jwt_secret"},
		{"google secret", func(c *Config) {
			c.Auth.Google.ClientID = "id"
			c.Auth.Google.ClientSecret = "secret"
		}, "google login"},
		{"agent", func(c *Config) {
			c.Agents = []core.AgentConfig{{ID: "a", DestinationType: core.DestinationLocal}}
		}, "agents[0]"},
		{"duplicate", func(c *Config) {
			a := core.AgentConfig{ID: "a", Name: "A", DestinationType: core.DestinationLocal}
			c.Agents = []core.AgentConfig{a, a}
		}, "duplicate id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "TEXT"
	cfg.Log.Source = true

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LogLevelDebug, lc.Level)
	assert.Equal(t, "text", lc.Format)
	assert.True(t, lc.AddSource)
}

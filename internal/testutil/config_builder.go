package testutil

import "github.com/hupe1980/agentrouter/core"

// ConfigBuilder provides a fluent helper for constructing agent configs in tests.
//
//	cfg := testutil.NewConfigBuilder("a1").Model("m").Tools("weather").Build()
type ConfigBuilder struct {
	cfg core.AgentConfig
}

// NewConfigBuilder starts a local agent config named "Test".
func NewConfigBuilder(id string) *ConfigBuilder {
	return &ConfigBuilder{cfg: core.AgentConfig{ID: id, Name: "Test", DestinationType: core.DestinationLocal}}
}

// Name sets the agent name.
func (b *ConfigBuilder) Name(n string) *ConfigBuilder { b.cfg.Name = n; return b }

// Provider sets the model provider.
func (b *ConfigBuilder) Provider(p string) *ConfigBuilder { b.cfg.Provider = p; return b }

// Model sets the model identifier.
func (b *ConfigBuilder) Model(m string) *ConfigBuilder { b.cfg.Model = m; return b }

// Description sets the description.
func (b *ConfigBuilder) Description(d string) *ConfigBuilder { b.cfg.Description = d; return b }

// Instructions sets the system instructions.
func (b *ConfigBuilder) Instructions(i string) *ConfigBuilder { b.cfg.Instructions = i; return b }

// Prompt sets the template for a role.
func (b *ConfigBuilder) Prompt(role, text string) *ConfigBuilder {
	if b.cfg.Prompts == nil {
		b.cfg.Prompts = map[string]string{}
	}
	b.cfg.Prompts[role] = text
	return b
}

// Tools appends built-in tool names.
func (b *ConfigBuilder) Tools(names ...string) *ConfigBuilder {
	for _, n := range names {
		b.cfg.Tools = append(b.cfg.Tools, core.ToolRef{Name: n})
	}
	return b
}

// Descriptor appends an opaque structured tool descriptor.
func (b *ConfigBuilder) Descriptor(d map[string]any) *ConfigBuilder {
	b.cfg.Tools = append(b.cfg.Tools, core.ToolRef{Descriptor: d})
	return b
}

// Remote switches the config to the remote channel with the given URL.
func (b *ConfigBuilder) Remote(url string) *ConfigBuilder {
	b.cfg.DestinationType = core.DestinationRemote
	b.cfg.RemoteURL = url
	return b
}

// Destination sets the raw destination type.
func (b *ConfigBuilder) Destination(d core.DestinationType) *ConfigBuilder {
	b.cfg.DestinationType = d
	return b
}

// Build returns a copy of the assembled config.
func (b *ConfigBuilder) Build() core.AgentConfig { return b.cfg.Clone() }

// Package factory builds runnable local agents from declarative
// configurations: it selects a model provider, resolves built-in tools once
// and wires both into an agent.LocalAgent.
package factory

import (
	"strings"

	"github.com/hupe1980/agentrouter/agent"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/tool"
)

// DefaultDescription is used when a configuration carries no description.
const DefaultDescription = "A helpful assistant."

// ProviderFunc constructs the model for one agent configuration. It returns
// *core.ConfigurationError when a required credential is missing.
type ProviderFunc func(cfg core.AgentConfig, creds Credentials) (model.Model, error)

// Options configures a Factory.
type Options struct {
	Credentials Credentials
	// Providers maps lower-case provider names to constructors.
	Providers map[string]ProviderFunc
	// DefaultProvider is used for empty or unknown provider names.
	DefaultProvider string
	// MaxTurns bounds model calls per message for built agents.
	MaxTurns int
	Logger   logging.Logger
}

// Factory builds local agents. It is safe for concurrent use.
type Factory struct {
	opts Options
}

// New creates a Factory with the built-in providers.
func New(optFns ...func(o *Options)) *Factory {
	opts := Options{
		Providers:       DefaultProviders(),
		DefaultProvider: ProviderOpenRouter,
		MaxTurns:        5,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Factory{opts: opts}
}

// Build constructs the runnable handle for a local configuration.
func (f *Factory) Build(cfg core.AgentConfig) (core.Agent, error) {
	providerName := f.providerName(cfg.Provider)

	ctor, ok := f.opts.Providers[providerName]
	if !ok {
		return nil, &core.ConfigurationError{Provider: providerName, Setting: "provider constructor"}
	}

	llm, err := ctor(cfg, f.opts.Credentials)
	if err != nil {
		f.opts.Logger.Warn("factory.build.failed", "agent_id", cfg.ID, "provider", providerName, "error", err.Error())
		return nil, err
	}

	resolved, passthrough := tool.Resolve(cfg.Tools)

	description := cfg.Description
	if description == "" {
		description = DefaultDescription
	}

	a := agent.NewLocalAgent(cfg.ID, cfg.Name, llm, func(o *agent.LocalAgentOptions) {
		if sys := cfg.Prompts["system"]; strings.TrimSpace(sys) != "" {
			o.SystemPrompt = agent.NewInstructionFromText(sys)
		}
		o.Instructions = agent.NewInstructionFromText(cfg.Instructions)
		o.Description = description
		o.UserPrompt = agent.NewInstructionFromText(cfg.Prompts["user"])
		o.Tools = resolved
		o.Passthrough = passthrough
		o.SubAgents = cfg.SubAgents
		o.MaxTurns = f.opts.MaxTurns
		o.Logger = f.opts.Logger
	})

	f.opts.Logger.Info("factory.build.ok",
		"agent_id", cfg.ID,
		"provider", providerName,
		"model", llm.Info().Name,
		"tools", len(resolved),
		"passthrough", len(passthrough),
	)

	return a, nil
}

func (f *Factory) providerName(requested string) string {
	name := strings.ToLower(strings.TrimSpace(requested))
	if _, ok := f.opts.Providers[name]; ok && name != "" {
		return name
	}
	if name != "" {
		f.opts.Logger.Debug("factory.provider.fallback", "requested", requested, "using", f.opts.DefaultProvider)
	}
	return f.opts.DefaultProvider
}

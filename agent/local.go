package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/flow"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/tool"
)

// DefaultSystemPrompt is used when a configuration supplies no system template.
const DefaultSystemPrompt = "You are a helpful assistant."

// LocalAgentOptions configures a LocalAgent instance.
//
// Use functional options with NewLocalAgent to override defaults.
type LocalAgentOptions struct {
	SystemPrompt Instruction
	Instructions Instruction
	Description  string
	// UserPrompt is rendered and placed before every message, separated by a blank line.
	UserPrompt  Instruction
	Tools       []tool.Tool
	Passthrough []core.ToolRef
	SubAgents   []string
	MaxTurns    int
	Logger      logging.Logger
}

// LocalAgent answers messages in-process through a model and its tools.
type LocalAgent struct {
	id          string
	name        string
	llm         model.Model
	loop        *flow.Loop
	opts        LocalAgentOptions
	passthrough []string
}

var _ core.Agent = (*LocalAgent)(nil)

// NewLocalAgent creates a local agent with the given identity and model.
func NewLocalAgent(id, name string, llm model.Model, optFns ...func(o *LocalAgentOptions)) *LocalAgent {
	opts := LocalAgentOptions{
		SystemPrompt: NewInstructionFromText(DefaultSystemPrompt),
		MaxTurns:     5,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	a := &LocalAgent{
		id:   id,
		name: name,
		llm:  llm,
		opts: opts,
		loop: flow.New(llm, opts.Tools, func(o *flow.Options) {
			o.MaxTurns = opts.MaxTurns
			o.Logger = opts.Logger
		}),
	}

	for _, ref := range opts.Passthrough {
		if n := ref.ToolName(); n != "" {
			a.passthrough = append(a.passthrough, n)
		}
	}

	return a
}

// ID implements core.Agent.
func (a *LocalAgent) ID() string { return a.id }

// Name implements core.Agent.
func (a *LocalAgent) Name() string { return a.name }

// Model returns the model backing the agent.
func (a *LocalAgent) Model() model.Model { return a.llm }

// Tools returns the names of the callable tools.
func (a *LocalAgent) Tools() []string {
	names := make([]string, 0, len(a.opts.Tools))
	for _, t := range a.opts.Tools {
		names = append(names, t.Name())
	}
	return names
}

// Passthrough returns the tool references the agent carries but cannot call.
func (a *LocalAgent) Passthrough() []core.ToolRef {
	return append([]core.ToolRef(nil), a.opts.Passthrough...)
}

// SubAgents returns the declared sub-agent ids.
func (a *LocalAgent) SubAgents() []string { return append([]string(nil), a.opts.SubAgents...) }

// Run implements core.Agent.
func (a *LocalAgent) Run(ctx context.Context, message string) (string, error) {
	vars := map[string]any{
		"agent_id":   a.id,
		"agent_name": a.name,
		"model":      a.llm.Info().Name,
		"message":    message,
	}

	system, err := a.systemPrompt(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}

	user := message
	if !a.opts.UserPrompt.IsZero() {
		prefix, err := a.opts.UserPrompt.Resolve(ctx, vars)
		if err != nil {
			return "", fmt.Errorf("render user prompt: %w", err)
		}
		if prefix != "" {
			user = prefix + "\n\n" + message
		}
	}

	a.opts.Logger.Debug("agent.run.start", "agent_id", a.id, "tools", len(a.opts.Tools))

	res, err := a.loop.Run(ctx, core.AgentInfo{ID: a.id, Name: a.name}, []core.Content{
		core.NewTextContent("system", system),
		core.NewTextContent("user", user),
	})
	if err != nil {
		a.opts.Logger.Warn("agent.run.failed", "agent_id", a.id, "error", err.Error())
		return "", err
	}

	a.opts.Logger.Debug("agent.run.done", "agent_id", a.id, "turns", res.Turns)

	return res.Text, nil
}

func (a *LocalAgent) systemPrompt(ctx context.Context, vars map[string]any) (string, error) {
	var sections []string
	for _, inst := range []Instruction{a.opts.SystemPrompt, a.opts.Instructions, NewInstructionFromText(a.opts.Description)} {
		if inst.IsZero() {
			continue
		}
		text, err := inst.Resolve(ctx, vars)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			sections = append(sections, text)
		}
	}
	if len(a.passthrough) > 0 {
		sections = append(sections, "Declared integrations without a local implementation: "+strings.Join(a.passthrough, ", ")+".")
	}
	return strings.Join(sections, "\n\n"), nil
}

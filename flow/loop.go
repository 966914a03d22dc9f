// Package flow implements the synchronous model/tool loop that backs local
// agents: request -> model -> (tool calls -> tool responses -> model)* -> answer.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/model"
	"github.com/hupe1980/agentrouter/tool"
)

// ErrMaxTurns is returned when the model keeps requesting tools past the turn limit.
var ErrMaxTurns = errors.New("model did not produce a final answer")

// Options configures a Loop.
type Options struct {
	// MaxTurns bounds the number of model calls per run (0 = unlimited).
	MaxTurns int
	// Executor runs tool batches; defaults to a parallel executor.
	Executor FunctionExecutor
	Logger   logging.Logger
}

// Result is the outcome of one run.
type Result struct {
	Text     string
	Turns    int
	Contents []core.Content
}

// Loop drives one model with a fixed tool set.
type Loop struct {
	llm   model.Model
	tools map[string]tool.Tool
	defs  []model.ToolDefinition
	opts  Options
}

// New constructs a Loop. Tools are announced to the model in the given order.
func New(llm model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxTurns: 5,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Executor == nil {
		opts.Executor = NewParallelFunctionExecutor(FunctionExecutorConfig{Logger: opts.Logger})
	}

	l := &Loop{llm: llm, tools: make(map[string]tool.Tool, len(tools)), opts: opts}
	for _, t := range tools {
		l.tools[t.Name()] = t
		l.defs = append(l.defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return l
}

// Model returns the model driven by the loop.
func (l *Loop) Model() model.Model { return l.llm }

// Run executes turns until the model answers without tool calls.
func (l *Loop) Run(ctx context.Context, agent core.AgentInfo, contents []core.Content) (Result, error) {
	limiter := core.NewTurnLimiter(l.opts.MaxTurns)
	history := append([]core.Content(nil), contents...)
	info := l.llm.Info()

	for {
		if err := limiter.Increment(); err != nil {
			return Result{Turns: limiter.Count() - 1, Contents: history}, fmt.Errorf("%w: %v", ErrMaxTurns, err)
		}

		start := time.Now()
		resp, err := model.Collect(ctx, l.llm, model.Request{Contents: history, Tools: l.defs})

		tokens := 0
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		logging.LLMCall(l.opts.Logger, info.Provider+"/"+info.Name, tokens, time.Since(start), err)

		if err != nil {
			return Result{Turns: limiter.Count(), Contents: history}, err
		}

		history = append(history, resp.Content)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return Result{Text: resp.Content.Text(), Turns: limiter.Count(), Contents: history}, nil
		}

		responses := l.opts.Executor.Execute(ctx, agent, l.tools, calls)
		parts := make([]core.Part, 0, len(responses))
		for _, r := range responses {
			parts = append(parts, core.FunctionResponsePart{FunctionResponse: r})
		}
		history = append(history, core.Content{Role: "tool", Parts: parts})
	}
}

package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/tool"
)

// FunctionExecutor executes one batch of model-requested function calls.
// Implementations must:
//   - Respect ctx cancellation
//   - Never panic (recover internally and report an error response)
//   - Return exactly one FunctionResponse per call, in call order
type FunctionExecutor interface {
	Execute(ctx context.Context, agent core.AgentInfo, tools map[string]tool.Tool, calls []core.FunctionCall) []core.FunctionResponse
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel int // <1 => len(calls)
	Logger      logging.Logger
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs an executor running calls of one
// batch concurrently, bounded by cfg.MaxParallel.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	cfg.Logger = logging.OrNoOp(cfg.Logger)
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	ctx context.Context,
	agent core.AgentInfo,
	tools map[string]tool.Tool,
	calls []core.FunctionCall,
) []core.FunctionResponse {
	n := len(calls)
	results := make([]core.FunctionResponse, n)
	if n == 0 {
		return results
	}

	if n == 1 {
		results[0] = e.executeOne(ctx, agent, tools, calls[0])
		return results
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.executeOne(ctx, agent, tools, fc)
		}(i, calls[i])
	}

	wg.Wait()

	e.cfg.Logger.Debug(
		"agent.functions.batch.complete",
		"agent_id", agent.ID,
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (e *parallelFunctionExecutor) executeOne(
	ctx context.Context,
	agent core.AgentInfo,
	tools map[string]tool.Tool,
	fc core.FunctionCall,
) (resp core.FunctionResponse) {
	resp = core.FunctionResponse{ID: fc.ID, Name: fc.Name}

	if err := ctx.Err(); err != nil {
		resp.Error = err.Error()
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error("agent.function.panic", "agent_id", agent.ID, "function", fc.Name, "recover", r, "stack", string(debug.Stack()))
			resp.Response = nil
			resp.Error = fmt.Sprintf("tool %s panicked", fc.Name)
		}
	}()

	start := time.Now()
	toolCtx := core.NewToolContext(ctx, agent, fc.ID, e.cfg.Logger)
	result, err := executeTool(tools, toolCtx, fc.Name, fc.Arguments)

	e.cfg.Logger.Info(
		"agent.function.executed",
		"agent_id", agent.ID,
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Response = result
	return resp
}

// executeTool centralizes tool lookup, argument decoding and execution.
func executeTool(tools map[string]tool.Tool, toolCtx *core.ToolContext, name, args string) (any, error) {
	impl, ok := tools[name]
	if !ok {
		return nil, tool.NewToolError(name, fmt.Sprintf("tool %s not found", name), tool.CodeNotFound)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(name, fmt.Sprintf("failed to unmarshal args: %v", err), tool.CodeValidation)
		}
	}

	return impl.Call(toolCtx, argMap)
}

package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentrouter/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by a local agent: the request context, the calling agent and a logger.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	agentInfo      AgentInfo

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to the running request and
// the function call being served.
func NewToolContext(ctx context.Context, agent AgentInfo, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		functionCallID: functionCallID,
		agentInfo:      agent,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentID returns the registry id of the calling agent.
func (tc *ToolContext) AgentID() string { return tc.agentInfo.ID }

// AgentName returns the name of the calling agent.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.functionCallID == "" || tc.agentInfo.ID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}

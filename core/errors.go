package core

import (
	"fmt"

	"github.com/hupe1980/agentrouter/internal/util"
)

// ValidationError reports a malformed AgentConfig, MessageRequest or tool
// argument. Nothing is persisted when it is returned.
type ValidationError = util.ValidationError

// InvalidRequestError reports a message whose destination cannot be routed.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

// ConfigurationError reports a missing setting (usually a provider
// credential) detected while building an agent.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s is not configured: missing %s", e.Provider, e.Setting)
}

// ExecutionError wraps a failure raised by a local agent while answering a message.
type ExecutionError struct {
	AgentID string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %s failed: %v", e.AgentID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// GatewayError reports a failed call to a remote peer: transport failure,
// timeout, non-2xx status or an undecodable body.
type GatewayError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote call to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote call to %s failed: %v", e.URL, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NotFoundReply is the reply synthesized when a local target is not registered.
func NotFoundReply(id string) string { return "Agent not found: " + id }

package core

import "context"

// Agent is the live, runnable counterpart of a local AgentConfig.
//
// Handles are produced by the agent factory and owned by the registry; the
// dispatcher only ever obtains them through registry lookups. Implementations
// must be safe for concurrent use since a single handle may serve many
// in-flight requests.
type Agent interface {
	// ID returns the registry identifier the handle was built for.
	ID() string
	// Name returns the human readable agent name.
	Name() string
	// Run answers a single message. A returned error is an execution failure.
	Run(ctx context.Context, message string) (string, error)
}

// AgentInfo carries identifying details about an agent used in tool contexts.
type AgentInfo struct{ ID, Name string }

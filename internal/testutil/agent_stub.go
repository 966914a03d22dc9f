package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentrouter/core"
)

// StubAgent is a core.Agent whose reply is produced by Fn (default: echo).
// It records every message it receives.
type StubAgent struct {
	AgentID   string
	AgentName string
	Fn        func(ctx context.Context, message string) (string, error)

	mu       sync.Mutex
	received []string
}

var _ core.Agent = (*StubAgent)(nil)

// NewEchoAgent returns a stub replying "echo: <message>".
func NewEchoAgent(id string) *StubAgent {
	return &StubAgent{AgentID: id, AgentName: id, Fn: func(_ context.Context, m string) (string, error) {
		return "echo: " + m, nil
	}}
}

// NewFailingAgent returns a stub whose Run always fails with err.
func NewFailingAgent(id string, err error) *StubAgent {
	return &StubAgent{AgentID: id, AgentName: id, Fn: func(context.Context, string) (string, error) {
		return "", err
	}}
}

// ID implements core.Agent.
func (s *StubAgent) ID() string { return s.AgentID }

// Name implements core.Agent.
func (s *StubAgent) Name() string { return s.AgentName }

// Run implements core.Agent.
func (s *StubAgent) Run(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	s.received = append(s.received, message)
	s.mu.Unlock()
	if s.Fn == nil {
		return message, nil
	}
	return s.Fn(ctx, message)
}

// Received returns the messages seen so far.
func (s *StubAgent) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

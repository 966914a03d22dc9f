// Package registry holds the registered agent configurations and the runnable
// handles built for local agents. All reads and writes go through one lock so
// a lookup never observes a config without its matching handle.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
)

// Builder turns a local configuration into a runnable agent.
// *factory.Factory satisfies it.
type Builder interface {
	Build(cfg core.AgentConfig) (core.Agent, error)
}

// Options configures a Registry.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// Clock stamps UpdatedAt. Defaults to time.Now.
	Clock func() time.Time
}

// Registry maps agent ids to configurations and handles. It is safe for
// concurrent use; registration of the same id is last-write-wins.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]core.AgentConfig
	handles map[string]core.Agent
	builder Builder
	opts    Options
}

// New creates an empty registry that builds local agents with builder.
func New(builder Builder, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Registry{
		configs: make(map[string]core.AgentConfig),
		handles: make(map[string]core.Agent),
		builder: builder,
		opts:    opts,
	}
}

// Register validates cfg, builds a handle for local agents and stores the
// result under cfg.ID, replacing any previous entry. A factory failure is not
// returned: the config is stored with StatusError and the failure text, and
// any previous handle for the id is dropped. The stored view is returned.
func (r *Registry) Register(cfg core.AgentConfig) (core.AgentConfig, error) {
	if err := cfg.Validate(); err != nil {
		r.opts.Logger.Warn("registry.register.invalid", "agent_id", cfg.ID, "error", err.Error())
		return core.AgentConfig{}, err
	}

	stored := cfg.Clone()
	stored.StatusDetail = ""
	stored.UpdatedAt = r.opts.Clock().UTC()

	var handle core.Agent

	if stored.IsRemote() {
		stored.Status = core.StatusDeployed
	} else {
		// Building may be slow; it must not block lookups.
		h, err := r.build(stored)
		if err != nil {
			stored.Status = core.StatusError
			stored.StatusDetail = err.Error()
		} else {
			stored.Status = core.StatusDeployed
			handle = h
		}
	}

	r.mu.Lock()
	r.configs[stored.ID] = stored
	if handle != nil {
		r.handles[stored.ID] = handle
	} else {
		delete(r.handles, stored.ID)
	}
	r.mu.Unlock()

	r.opts.Metrics.ObserveRegistration(string(stored.Status))

	if stored.Status == core.StatusError {
		r.opts.Logger.Warn("registry.register.error", "agent_id", stored.ID, "error", stored.StatusDetail)
	} else {
		r.opts.Logger.Info("registry.register.ok",
			"agent_id", stored.ID,
			"destination", string(stored.DestinationType),
			"status", string(stored.Status),
		)
	}

	return stored.Clone(), nil
}

func (r *Registry) build(cfg core.AgentConfig) (core.Agent, error) {
	if r.builder == nil {
		return nil, errors.New("no agent builder configured")
	}
	h, err := r.builder.Build(cfg)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.New("agent builder returned no handle")
	}
	return h, nil
}

// LookupHandle returns the runnable handle of a deployed local agent.
func (r *Registry) LookupHandle(id string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// LookupConfig returns a copy of the stored configuration.
func (r *Registry) LookupConfig(id string) (core.AgentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return core.AgentConfig{}, false
	}
	return cfg.Clone(), true
}

// List returns copies of all stored configurations ordered by id.
func (r *Registry) List() []core.AgentConfig {
	r.mu.RLock()
	out := make([]core.AgentConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.configs)
}

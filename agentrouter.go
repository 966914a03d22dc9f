// Package agentrouter provides a high-level façade over the registry,
// factory, dispatcher and telemetry log, enabling a multi-agent message
// router to be assembled in a few lines. Most applications interact with this
// package by:
//  1. Creating a Router via New() (optionally overriding the in-memory telemetry store)
//  2. Registering agent configurations (local LLM-backed or remote HTTP peers)
//  3. Dispatching messages directly or serving Handler() over HTTP
//
// All defaults are safe for local development and testing; production
// deployments supply provider credentials and a structured logger.
package agentrouter

import (
	"context"
	"net/http"
	"time"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/dispatch"
	"github.com/hupe1980/agentrouter/factory"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
	"github.com/hupe1980/agentrouter/registry"
	"github.com/hupe1980/agentrouter/server"
	"github.com/hupe1980/agentrouter/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures the Router instance.
type Options struct {
	// Credentials feed the built-in model providers.
	Credentials factory.Credentials
	// Providers overrides or extends the provider constructors.
	Providers map[string]factory.ProviderFunc
	// MaxTurns bounds model calls per message for local agents.
	MaxTurns int

	// RemoteTimeout bounds each call to a remote peer.
	RemoteTimeout time.Duration
	Breaker       dispatch.BreakerConfig
	HTTPClient    *http.Client

	// TelemetryStore defaults to an in-memory store.
	TelemetryStore core.TelemetryStore

	// MetricsRegistry receives the router's Prometheus collectors. When nil a
	// private registry is used so several Routers can coexist.
	MetricsRegistry *prometheus.Registry

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Router is the façade aggregating the router components.
type Router struct {
	opts       Options
	metrics    *metrics.Metrics
	factory    *factory.Factory
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
}

// New creates a Router with optional overrides.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		MaxTurns:       5,
		RemoteTimeout:  dispatch.DefaultRemoteTimeout,
		TelemetryStore: telemetry.NewInMemoryStore(),
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.MetricsRegistry == nil {
		opts.MetricsRegistry = prometheus.NewRegistry()
	}

	m := metrics.NewMetrics(opts.MetricsRegistry)

	f := factory.New(func(o *factory.Options) {
		o.Credentials = opts.Credentials
		for name, ctor := range opts.Providers {
			o.Providers[name] = ctor
		}
		o.MaxTurns = opts.MaxTurns
		o.Logger = opts.Logger
	})

	reg := registry.New(f, func(o *registry.Options) {
		o.Logger = opts.Logger
		o.Metrics = m
	})

	d := dispatch.New(reg, opts.TelemetryStore, func(o *dispatch.Options) {
		o.RemoteTimeout = opts.RemoteTimeout
		o.Breaker = opts.Breaker
		o.HTTPClient = opts.HTTPClient
		o.Logger = opts.Logger
		o.Metrics = m
	})

	return &Router{opts: opts, metrics: m, factory: f, registry: reg, dispatcher: d}
}

// Register validates and stores an agent configuration.
func (r *Router) Register(cfg core.AgentConfig) (core.AgentConfig, error) {
	return r.registry.Register(cfg)
}

// Dispatch delivers one message and records it in the session telemetry.
func (r *Router) Dispatch(ctx context.Context, req core.MessageRequest) (core.DispatchRecord, error) {
	return r.dispatcher.Dispatch(ctx, req)
}

// Converse runs a local agent directly without recording telemetry.
func (r *Router) Converse(ctx context.Context, agentID, message string) (string, bool, error) {
	return r.dispatcher.Converse(ctx, agentID, message)
}

// Telemetry returns the ordered records of a session.
func (r *Router) Telemetry(sessionID string) ([]core.DispatchRecord, error) {
	return r.opts.TelemetryStore.Read(sessionID)
}

// Agents returns the registered configurations ordered by id.
func (r *Router) Agents() []core.AgentConfig { return r.registry.List() }

// Handler returns the HTTP API. /metrics serves the router's collectors.
func (r *Router) Handler(optFns ...func(o *server.Options)) http.Handler {
	srv := server.New(r.registry, r.dispatcher, r.opts.TelemetryStore, func(o *server.Options) {
		o.Logger = r.opts.Logger
		o.Metrics = r.metrics
		o.Gatherer = r.opts.MetricsRegistry
		for _, fn := range optFns {
			fn(o)
		}
	})
	return srv.Handler()
}

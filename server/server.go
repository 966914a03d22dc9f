// Package server exposes the router over HTTP: agent registration, message
// dispatch, telemetry reads, the direct conversation endpoint, Google login
// and operational endpoints (health, Prometheus metrics).
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hupe1980/agentrouter/auth"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registration surface the server needs. *registry.Registry satisfies it.
type Registry interface {
	Register(cfg core.AgentConfig) (core.AgentConfig, error)
	LookupConfig(id string) (core.AgentConfig, bool)
	List() []core.AgentConfig
}

// Dispatcher delivers messages. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req core.MessageRequest) (core.DispatchRecord, error)
	Converse(ctx context.Context, agentID, message string) (string, bool, error)
}

// RateLimit throttles requests per client IP. Zero RequestsPerMin disables it.
type RateLimit struct {
	RequestsPerMin int
	Burst          int
}

// Options configures a Server.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint unmounted.
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	// Tokens validates bearer tokens; /api/me is mounted when set.
	Tokens *auth.TokenIssuer
	// RequireAuth protects the agent, message and telemetry routes.
	RequireAuth bool
	Google      *auth.GoogleLogin
	RateLimit   RateLimit
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// Server holds the HTTP handlers.
type Server struct {
	registry   Registry
	dispatcher Dispatcher
	telemetry  core.TelemetryStore
	opts       Options
}

// New creates a server over the given components.
func New(reg Registry, disp Dispatcher, store core.TelemetryStore, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		CORSOrigins:  []string{"http://localhost:5173"},
		MaxBodyBytes: 1 << 20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Server{registry: reg, dispatcher: disp, telemetry: store, opts: opts}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Order: recover -> request id -> logging -> metrics -> cors -> rate limit
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(s.instrument)
	r.Use(s.cors)
	if s.opts.RateLimit.RequestsPerMin > 0 {
		r.Use(rateLimit(s.opts.RateLimit))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/adk/agent", s.handleConverse)

	if s.opts.Google != nil {
		r.Get("/auth/google/login", s.handleGoogleLogin)
		r.Get("/auth/google/callback", s.handleGoogleCallback)
	}

	if s.opts.Tokens != nil {
		r.With(auth.Middleware(s.opts.Tokens)).Get("/api/me", s.handleMe)
	}

	r.Group(func(r chi.Router) {
		if s.opts.RequireAuth && s.opts.Tokens != nil {
			r.Use(auth.Middleware(s.opts.Tokens))
		}

		for _, p := range []string{"/agents", "/agents/"} {
			r.Post(p, s.handleRegister)
			r.Get(p, s.handleListAgents)
		}
		r.Get("/agents/{id}", s.handleGetAgent)
		r.Post("/agents/{id}/message", s.handleAgentMessage)

		r.Post("/message", s.handleMessage)
		r.Post("/message/", s.handleMessage)

		r.Get("/telemetry/session/{sessionId}", s.handleTelemetry)
		r.Get("/telemetry/{sessionId}", s.handleTelemetry)
	})

	return r
}

// NewHTTPServer wraps handler in an http.Server with the given timeouts.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
}

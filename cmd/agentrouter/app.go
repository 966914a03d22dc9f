package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hupe1980/agentrouter"
	"github.com/hupe1980/agentrouter/auth"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/server"
	"github.com/hupe1980/agentrouter/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wired router plus the resources that need closing on shutdown.
type app struct {
	handler http.Handler
	closers []func() error
}

// Close releases the telemetry store.
func (a *app) Close() error {
	for _, c := range a.closers {
		if err := c(); err != nil {
			return err
		}
	}
	return nil
}

func openTelemetry(cfg config.TelemetryConfig) (core.TelemetryStore, func() error, error) {
	if strings.EqualFold(cfg.Store, config.TelemetrySQLite) {
		store, err := telemetry.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return telemetry.NewInMemoryStore(), func() error { return nil }, nil
}

// newApp wires the router from cfg, registers the configured agents and
// builds the HTTP handler.
func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	store, closeStore, err := openTelemetry(cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	a := &app{closers: []func() error{closeStore}}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := agentrouter.New(func(o *agentrouter.Options) {
		o.Credentials = cfg.Credentials()
		o.MaxTurns = cfg.Dispatch.MaxTurns
		o.RemoteTimeout = cfg.Dispatch.RemoteTimeout
		o.Breaker = cfg.BreakerSettings()
		o.TelemetryStore = store
		o.MetricsRegistry = promReg
		o.Logger = logger
	})

	for _, ac := range cfg.Agents {
		stored, err := router.Register(ac)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("register agent %q: %w", ac.ID, err)
		}
		if stored.StatusDetail != "" {
			logger.Warn("agent.startup.error", "agent_id", stored.ID, "detail", stored.StatusDetail)
		}
	}

	var (
		tokens *auth.TokenIssuer
		google *auth.GoogleLogin
	)
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenIssuer(cfg.Auth.JWTSecret, func(o *auth.TokenIssuerOptions) {
			o.TTL = cfg.Auth.TokenTTL
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if cfg.Auth.Google.Configured() {
			google = auth.NewGoogleLogin(tokens, func(o *auth.GoogleLoginOptions) {
				o.ClientID = cfg.Auth.Google.ClientID
				o.ClientSecret = cfg.Auth.Google.ClientSecret
				o.RedirectURL = cfg.Auth.Google.RedirectURL
			})
		}
	}

	a.handler = router.Handler(func(o *server.Options) {
		o.CORSOrigins = cfg.Server.CORSOrigins
		o.Tokens = tokens
		o.RequireAuth = cfg.Auth.Enabled
		o.Google = google
		o.RateLimit = server.RateLimit{
			RequestsPerMin: cfg.Server.RateLimit.RequestsPerMin,
			Burst:          cfg.Server.RateLimit.Burst,
		}
	})

	return a, nil
}

// Package logging provides a minimal logging interface and adapters for agentrouter.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registry, dispatcher and HTTP server use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger built on log/slog with dispatch, model and tool helpers
//   - SlogAdapter for callers that already own a *slog.Logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json"})
//	router := agentrouter.New(func(o *agentrouter.Options) { o.Logger = logger })
package logging

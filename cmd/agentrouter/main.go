// Command agentrouter serves the multi-agent message router over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/server"
)

// CLI is the command line surface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" default:"1" help:"Start the HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration."`

	Config    string `short:"c" help:"Path to YAML config file." type:"path" env:"AGENTROUTER_CONFIG"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (json, text)."`
}

// load reads the configuration and applies global flag overrides.
func (c *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	return cfg, nil
}

// VersionCmd prints the module version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("agentrouter version %s\n", version)
	return nil
}

// ValidateCmd loads and validates the configuration.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	fmt.Printf("configuration OK (%d agents)\n", len(cfg.Agents))
	return nil
}

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	Host          string        `help:"Address to bind."`
	Port          int           `help:"Port to listen on."`
	RemoteTimeout time.Duration `name:"remote-timeout" help:"Timeout for remote agent calls."`
	Auth          *bool         `negatable:"" help:"Require bearer tokens on the API."`
	CORSOrigin    []string      `name:"cors-origin" help:"Allowed CORS origin (repeatable)."`
}

func (c *ServeCmd) apply(cfg *config.Config) {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.RemoteTimeout > 0 {
		cfg.Dispatch.RemoteTimeout = c.RemoteTimeout
	}
	if c.Auth != nil {
		cfg.Auth.Enabled = *c.Auth
	}
	if len(c.CORSOrigin) > 0 {
		cfg.Server.CORSOrigins = c.CORSOrigin
	}
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	c.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger := logging.NewLogger(cfg.LoggerConfig()).WithComponent("agentrouter")

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewHTTPServer(cfg.Server.Addr(), a.handler, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.start", "addr", srv.Addr, "agents", len(cfg.Agents), "auth", cfg.Auth.Enabled, "telemetry", cfg.Telemetry.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("agentrouter"),
		kong.Description("Multi-agent message router"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

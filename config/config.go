// Package config loads the router configuration. Values are layered in this
// order, later layers winning: built-in defaults, a YAML file (with ${VAR}
// expansion), .env files, process environment, and finally CLI flags which
// the command applies on top of the returned Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/dispatch"
	"github.com/hupe1980/agentrouter/factory"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete router configuration.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Dispatch  DispatchConfig     `yaml:"dispatch"`
	Telemetry TelemetryConfig    `yaml:"telemetry"`
	Log       LogConfig          `yaml:"log"`
	Providers ProvidersConfig    `yaml:"providers"`
	Auth      AuthConfig         `yaml:"auth"`
	Agents    []core.AgentConfig `yaml:"agents"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string          `yaml:"host" env:"AGENTROUTER_HOST"`
	Port         int             `yaml:"port" env:"AGENTROUTER_PORT"`
	CORSOrigins  []string        `yaml:"cors_origins" env:"AGENTROUTER_CORS_ORIGINS" envSeparator:","`
	ReadTimeout  time.Duration   `yaml:"read_timeout" env:"AGENTROUTER_READ_TIMEOUT"`
	WriteTimeout time.Duration   `yaml:"write_timeout" env:"AGENTROUTER_WRITE_TIMEOUT"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// RateLimitConfig throttles requests per client IP. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMin int `yaml:"requests_per_min" env:"AGENTROUTER_RATE_LIMIT_RPM"`
	Burst          int `yaml:"burst" env:"AGENTROUTER_RATE_LIMIT_BURST"`
}

// DispatchConfig configures message delivery.
type DispatchConfig struct {
	RemoteTimeout time.Duration `yaml:"remote_timeout" env:"AGENTROUTER_REMOTE_TIMEOUT"`
	MaxTurns      int           `yaml:"max_turns" env:"AGENTROUTER_MAX_TURNS"`
	Breaker       BreakerConfig `yaml:"breaker"`
}

// Telemetry store kinds.
const (
	TelemetryMemory = "memory"
	TelemetrySQLite = "sqlite"
)

// TelemetryConfig selects where dispatch records are kept.
type TelemetryConfig struct {
	Store string `yaml:"store" env:"AGENTROUTER_TELEMETRY_STORE"`
	Path  string `yaml:"path" env:"AGENTROUTER_TELEMETRY_PATH"`
}

// BreakerConfig configures the optional per-peer circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled" env:"AGENTROUTER_BREAKER_ENABLED"`
	MaxFailures uint32        `yaml:"max_failures" env:"AGENTROUTER_BREAKER_MAX_FAILURES"`
	Timeout     time.Duration `yaml:"timeout" env:"AGENTROUTER_BREAKER_TIMEOUT"`
	Interval    time.Duration `yaml:"interval" env:"AGENTROUTER_BREAKER_INTERVAL"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"AGENTROUTER_LOG_LEVEL"`
	Format string `yaml:"format" env:"AGENTROUTER_LOG_FORMAT"`
	Source bool   `yaml:"source" env:"AGENTROUTER_LOG_SOURCE"`
}

// ProviderConfig holds one model provider's credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Referer string `yaml:"referer" env:"REFERER"`
}

// ProvidersConfig groups provider credentials; env names follow the
// providers' own conventions (OPENROUTER_API_KEY, OPENAI_API_KEY, ...).
type ProvidersConfig struct {
	OpenRouter ProviderConfig `yaml:"openrouter" envPrefix:"OPENROUTER_"`
	OpenAI     ProviderConfig `yaml:"openai" envPrefix:"OPENAI_"`
	Anthropic  ProviderConfig `yaml:"anthropic" envPrefix:"ANTHROPIC_"`
}

// AuthConfig configures bearer token auth and Google login.
type AuthConfig struct {
	Enabled   bool          `yaml:"enabled" env:"AGENTROUTER_AUTH_ENABLED"`
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET_KEY"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"AGENTROUTER_TOKEN_TTL"`
	Google    GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"GOOGLE_REDIRECT_URI"`
}

// Configured reports whether a Google client is registered.
func (g GoogleConfig) Configured() bool { return g.ClientID != "" && g.ClientSecret != "" }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:5173"},
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Dispatch: DispatchConfig{
			RemoteTimeout: dispatch.DefaultRemoteTimeout,
			MaxTurns:      5,
		},
		Telemetry: TelemetryConfig{
			Store: TelemetryMemory,
			Path:  "agentrouter.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
			Google: GoogleConfig{
				RedirectURL: "http://localhost:8000/auth/google/callback",
			},
		},
	}
}

// EnvFiles are loaded in order before binding the environment. Variables
// already set in the process are never overwritten.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads EnvFiles, skipping files that do not exist.
func LoadEnvFiles() error {
	for _, file := range EnvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load builds a Config from defaults, the optional YAML file at path and the
// environment. An empty path skips the file; a missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML into cfg after expanding ${VAR} references.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Dispatch.RemoteTimeout <= 0 {
		errs = append(errs, errors.New("dispatch.remote_timeout must be positive"))
	}
	if c.Dispatch.MaxTurns < 1 {
		errs = append(errs, errors.New("dispatch.max_turns must be at least 1"))
	}
	switch strings.ToLower(c.Telemetry.Store) {
	case TelemetryMemory:
	case TelemetrySQLite:
		if c.Telemetry.Path == "" {
			errs = append(errs, errors.New("telemetry.path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.store %q must be memory or sqlite", c.Telemetry.Store))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}
	if c.Auth.Google.Configured() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required for google login"))
	}

	seen := map[string]bool{}
	for i, a := range c.Agents {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("agents[%d]: %w", i, err))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true
	}

	return errors.Join(errs...)
}

// Credentials converts the provider section for the agent factory.
func (c *Config) Credentials() factory.Credentials {
	return factory.Credentials{
		OpenRouterAPIKey:  c.Providers.OpenRouter.APIKey,
		OpenRouterBaseURL: c.Providers.OpenRouter.BaseURL,
		OpenRouterReferer: c.Providers.OpenRouter.Referer,
		OpenAIAPIKey:      c.Providers.OpenAI.APIKey,
		OpenAIBaseURL:     c.Providers.OpenAI.BaseURL,
		AnthropicAPIKey:   c.Providers.Anthropic.APIKey,
		AnthropicBaseURL:  c.Providers.Anthropic.BaseURL,
	}
}

// BreakerSettings converts the breaker section for the dispatcher.
func (c *Config) BreakerSettings() dispatch.BreakerConfig {
	return dispatch.BreakerConfig{
		Enabled:     c.Dispatch.Breaker.Enabled,
		MaxFailures: c.Dispatch.Breaker.MaxFailures,
		Timeout:     c.Dispatch.Breaker.Timeout,
		Interval:    c.Dispatch.Breaker.Interval,
	}
}

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	if lvl, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = lvl
	}
	lc.Format = strings.ToLower(c.Log.Format)
	lc.AddSource = c.Log.Source
	return lc
}

package factory

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/model"
	anthropicmodel "github.com/hupe1980/agentrouter/model/anthropic"
	openaimodel "github.com/hupe1980/agentrouter/model/openai"
)

// Provider names accepted in AgentConfig.Provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderMock       = "mock"
)

// Credentials holds provider API keys and endpoint overrides.
type Credentials struct {
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterReferer string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AnthropicAPIKey   string
	AnthropicBaseURL  string
}

// DefaultProviders returns the built-in provider constructors.
func DefaultProviders() map[string]ProviderFunc {
	return map[string]ProviderFunc{
		ProviderOpenRouter: newOpenRouter,
		ProviderOpenAI:     newOpenAI,
		ProviderAnthropic:  newAnthropic,
		ProviderMock:       NewMockProvider,
	}
}

func newOpenRouter(cfg core.AgentConfig, creds Credentials) (model.Model, error) {
	if creds.OpenRouterAPIKey == "" {
		return nil, &core.ConfigurationError{Provider: ProviderOpenRouter, Setting: "OPENROUTER_API_KEY"}
	}
	return openaimodel.NewModel(openaimodel.WithOpenRouter(creds.OpenRouterAPIKey, creds.OpenRouterReferer), func(o *openaimodel.Options) {
		if cfg.Model != "" {
			o.Model = cfg.Model
		}
		if creds.OpenRouterBaseURL != "" {
			o.BaseURL = creds.OpenRouterBaseURL
		}
	}), nil
}

func newOpenAI(cfg core.AgentConfig, creds Credentials) (model.Model, error) {
	if creds.OpenAIAPIKey == "" {
		return nil, &core.ConfigurationError{Provider: ProviderOpenAI, Setting: "OPENAI_API_KEY"}
	}
	return openaimodel.NewModel(func(o *openaimodel.Options) {
		o.APIKey = creds.OpenAIAPIKey
		o.BaseURL = creds.OpenAIBaseURL
		if cfg.Model != "" {
			o.Model = cfg.Model
		}
	}), nil
}

func newAnthropic(cfg core.AgentConfig, creds Credentials) (model.Model, error) {
	if creds.AnthropicAPIKey == "" {
		return nil, &core.ConfigurationError{Provider: ProviderAnthropic, Setting: "ANTHROPIC_API_KEY"}
	}
	return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
		o.APIKey = creds.AnthropicAPIKey
		o.BaseURL = creds.AnthropicBaseURL
		if cfg.Model != "" {
			o.Model = anthropic.Model(cfg.Model)
		}
	}), nil
}

// NewMockProvider builds an offline model that echoes its input. It needs no credentials.
func NewMockProvider(cfg core.AgentConfig, _ Credentials) (model.Model, error) {
	name := cfg.Model
	if name == "" {
		name = "mock"
	}
	return model.NewMockModel(name, ProviderMock), nil
}

// Package model defines the provider-agnostic abstractions for interacting
// with language models inside agentrouter.
//
// Core goals:
//   - A single Generate interface shared by every provider
//   - Normalized tool / function call representation (ToolDefinition, ToolCall)
//   - Request/response shapes that stay transport independent
//   - Lightweight mocking for tests and the "mock" provider (MockModel)
//
// Providers (OpenAI, OpenRouter via the OpenAI adapter, Anthropic) live in
// sub-packages so local agents stay decoupled from vendor SDKs.
package model

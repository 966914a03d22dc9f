// Package agent contains the local agent implementation: an in-process
// core.Agent backed by a model and a resolved tool set.
//
// A LocalAgent composes its system prompt from the configured system
// template, instructions and description, prefixes the user message with the
// optional user template, and answers through the flow package's model/tool
// loop. Instances hold no per-request state and are safe for concurrent use.
package agent

// Package core provides the foundational domain types and interfaces shared by
// the agentrouter packages. It defines:
//
//   - AgentConfig (declarative agent description) and its validation rules
//   - Agent (the runnable handle produced for local configurations)
//   - MessageRequest / DispatchRecord (one routed exchange and its log entry)
//   - TelemetryStore (per-session append-only dispatch history)
//   - The typed error taxonomy mapped to status codes at the HTTP boundary
//   - Content parts and ToolContext used by the model/tool loop
//
// Implementation concerns (storage, transport, concrete agents) live in other
// packages and depend on the small interfaces declared here.
package core

// Package telemetry houses concrete implementations of core.TelemetryStore,
// the per-session append-only log of dispatched messages. The interface lives
// in core so the dispatcher and HTTP layer never depend on a concrete store.
//
// InMemoryStore is the default. SQLiteStore persists records across restarts
// using the pure Go modernc.org/sqlite driver. Only the wiring layer decides
// which implementation to instantiate.
package telemetry

package telemetry

import (
	"sort"
	"sync"

	"github.com/hupe1980/agentrouter/core"
)

// InMemoryStore keeps every session's records in a process local map. It is
// safe for concurrent access and unbounded: records live until the process
// exits. Reads return copies so callers cannot mutate the stored history.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.DispatchRecord
}

var _ core.TelemetryStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory telemetry store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.DispatchRecord)}
}

// Append adds rec to the end of the session, creating the session lazily.
func (s *InMemoryStore) Append(sessionID string, rec core.DispatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], rec.Clone())
	return nil
}

// Read returns deep copies of the session's records in append order. Unknown
// sessions yield an empty, non-nil slice.
func (s *InMemoryStore) Read(sessionID string) ([]core.DispatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.sessions[sessionID]
	out := make([]core.DispatchRecord, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out, nil
}

// Sessions returns the known session ids in lexical order.
func (s *InMemoryStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of records stored for a session.
func (s *InMemoryStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

package core

import (
	"encoding/json"
	"strings"
	"time"
)

// MessageRequest is one chat message addressed to an agent.
type MessageRequest struct {
	SessionID string          `json:"sessionId"`
	FromID    string          `json:"fromId"`
	ToID      string          `json:"toId"`
	Message   string          `json:"message"`
	ToType    DestinationType `json:"toType"`
	RemoteURL string          `json:"remoteUrl,omitempty"`
}

// Destination normalizes the requested destination type. The legacy "backend"
// value maps to local; anything other than local or remote is rejected.
func (r MessageRequest) Destination() (DestinationType, error) {
	switch DestinationType(strings.ToLower(strings.TrimSpace(string(r.ToType)))) {
	case DestinationLocal, DestinationBackend:
		return DestinationLocal, nil
	case DestinationRemote:
		if strings.TrimSpace(r.RemoteURL) == "" {
			return "", &InvalidRequestError{Message: "Invalid agent type or missing remoteUrl"}
		}
		return DestinationRemote, nil
	default:
		return "", &InvalidRequestError{Message: "Invalid agent type or missing remoteUrl"}
	}
}

// Validate checks the addressing fields that must be present before routing.
// An empty session id is not an error; callers generate one.
func (r MessageRequest) Validate() error {
	if strings.TrimSpace(r.ToID) == "" {
		return &ValidationError{Field: "toId", Message: "toId is required"}
	}
	return nil
}

// DispatchRecord is one immutable entry in a session's telemetry log. Exactly
// one of Reply or Error is set.
type DispatchRecord struct {
	Timestamp       time.Time       `json:"timestamp"`
	SessionID       string          `json:"sessionId"`
	FromID          string          `json:"fromId"`
	ToID            string          `json:"toId"`
	Message         string          `json:"message"`
	DestinationType DestinationType `json:"destinationType"`
	RemoteURL       string          `json:"remoteUrl,omitempty"`
	Reply           any             `json:"reply,omitempty"`
	Error           string          `json:"error,omitempty"`
	DurationMS      int64           `json:"durationMs"`
}

// Failed reports whether the record captured a failed dispatch.
func (r DispatchRecord) Failed() bool { return r.Error != "" }

// MarshalJSON always emits the reply key for a successful record, even when
// the peer answered with JSON null, and never emits it for a failed one.
func (r DispatchRecord) MarshalJSON() ([]byte, error) {
	type plain DispatchRecord
	if r.Failed() {
		r.Reply = nil
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		Reply any `json:"reply"`
	}{plain(r), r.Reply})
}

// Clone returns a copy whose structured reply shares no maps or slices with r.
func (r DispatchRecord) Clone() DispatchRecord {
	r.Reply = cloneValue(r.Reply)
	return r
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	default:
		return v
	}
}

// TelemetryStore is the per-session append-only dispatch history.
type TelemetryStore interface {
	// Append adds a record to the end of the session, creating it when absent.
	Append(sessionID string, rec DispatchRecord) error
	// Read returns the ordered history, or an empty slice for unknown sessions.
	Read(sessionID string) ([]DispatchRecord, error)
}

package testutil

import (
	"time"

	"github.com/hupe1980/agentrouter/core"
)

// NewRecord builds a successful local dispatch record for session sid.
func NewRecord(sid, toID string, reply any) core.DispatchRecord {
	return core.DispatchRecord{
		Timestamp:       time.Now().UTC(),
		SessionID:       sid,
		FromID:          "user",
		ToID:            toID,
		Message:         "hi",
		DestinationType: core.DestinationLocal,
		Reply:           reply,
	}
}

// NewFailedRecord builds a failed dispatch record for session sid.
func NewFailedRecord(sid, toID, errText string) core.DispatchRecord {
	rec := NewRecord(sid, toID, nil)
	rec.Error = errText
	return rec
}

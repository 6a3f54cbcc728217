package core

import (
	"encoding/json"
	"time"
)

// AuditEvent is one API-initiated action recorded in the audit trail.
type AuditEvent struct {
	EventID   int64           `json:"event_id"`
	Ts        time.Time       `json:"ts"`
	Namespace string          `json:"namespace"`
	Workspace string          `json:"workspace"`
	Action    string          `json:"action"`
	RequestID *string         `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

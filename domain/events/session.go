package events

import "time"

// SessionEventType identifies a session lifecycle transition
type SessionEventType string

const (
	SessionCreated     SessionEventType = "created"
	SessionUpdated     SessionEventType = "updated"
	SessionEnded       SessionEventType = "ended"
	SessionActivated   SessionEventType = "activated"
	SessionDeactivated SessionEventType = "deactivated"
	SessionDeleted     SessionEventType = "deleted"
	SessionViewed      SessionEventType = "viewed"
)

// SessionEvent is an ephemeral notification of a session lifecycle
// transition. It is fanned out synchronously to in-process subscribers
// and is not persisted by the bus itself.
type SessionEvent struct {
	Type      SessionEventType       `json:"type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// SessionHandler consumes session events. A handler error is logged by
// the bus and never interrupts delivery to the remaining handlers.
type SessionHandler func(event SessionEvent) error

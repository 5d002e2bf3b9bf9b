package ports

import (
	"context"
	"time"

	"webtrail/domain/core/aggregates"
	"webtrail/domain/core/entities"
	"webtrail/domain/events"
)

// SessionStore defines the interface for session persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SessionStore interface {
	// SaveSession persists a session (create or update)
	SaveSession(ctx context.Context, session *entities.BrowsingSession) error

	// LoadSessions retrieves all persisted sessions
	LoadSessions(ctx context.Context) ([]*entities.BrowsingSession, error)

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, id string) error
}

// SnapshotStore defines the interface for graph snapshot persistence
type SnapshotStore interface {
	// SaveGraphSnapshot persists a point-in-time copy of the graph
	SaveGraphSnapshot(ctx context.Context, snapshot *aggregates.Snapshot) error

	// LoadGraphSnapshot retrieves the latest persisted snapshot, or nil
	// when none has been taken yet
	LoadGraphSnapshot(ctx context.Context) (*aggregates.Snapshot, error)
}

// Subscription is a handle to an active session event registration
type Subscription interface {
	// Cancel removes the handler from the bus. Cancelling twice is a no-op.
	Cancel()
}

// SessionBus is the synchronous in-process fan-out for session lifecycle
// events. Delivery happens on the publisher's goroutine in registration
// order; a failing handler is logged and never interrupts the rest.
type SessionBus interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType events.SessionEventType, handler events.SessionHandler) Subscription

	// Publish fans an event out to the type's subscribers. Constructing
	// the event is skipped entirely when nobody is subscribed.
	Publish(eventType events.SessionEventType, sessionID string, data map[string]interface{})
}

// EventPublisher forwards graph domain events to an external bus for
// downstream consumers
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// TabDirectory answers questions about browser tabs the service has seen.
// It stands in for the browser's tab/window query capability, which the
// core only reaches through this narrow interface.
type TabDirectory interface {
	// RegisterTab records that a tab exists and what it currently shows
	RegisterTab(tabID int, url string)

	// IsKnownTab reports whether the tab has been seen before
	IsKnownTab(tabID int) bool

	// ActiveTabs lists the tab ids seen so far
	ActiveTabs() []int
}

// Clock abstracts the wall-clock time source so the segmentation and
// expiry logic is testable
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the production wall clock
var SystemClock Clock = ClockFunc(time.Now)

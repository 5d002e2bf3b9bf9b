package membus

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"webtrail/application/ports"
	"webtrail/domain/events"
)

// Bus is the synchronous in-process session event bus. Handlers run on
// the publisher's goroutine in registration order; a handler that fails
// or panics is logged and the remaining handlers still run.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	buckets map[events.SessionEventType][]*subscriber
	logger  *zap.Logger
	clock   ports.Clock
}

type subscriber struct {
	id      uint64
	handler events.SessionHandler
}

// subscription cancels one registration
type subscription struct {
	bus       *Bus
	eventType events.SessionEventType
	id        uint64
	once      sync.Once
}

// Cancel implements ports.Subscription
func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.bus.remove(s.eventType, s.id)
	})
}

// NewBus creates an empty bus
func NewBus(logger *zap.Logger, clock ports.Clock) *Bus {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &Bus{
		buckets: make(map[events.SessionEventType][]*subscriber),
		logger:  logger,
		clock:   clock,
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType events.SessionEventType, handler events.SessionHandler) ports.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{id: b.nextID, handler: handler}
	b.buckets[eventType] = append(b.buckets[eventType], sub)

	return &subscription{bus: b, eventType: eventType, id: sub.id}
}

// Publish fans an event out to the type's subscribers. When nobody is
// subscribed the event is never even constructed.
func (b *Bus) Publish(eventType events.SessionEventType, sessionID string, data map[string]interface{}) {
	b.mu.RLock()
	subs := b.buckets[eventType]
	// Copy so handlers that subscribe or cancel during delivery don't
	// mutate the slice under us
	snapshot := make([]*subscriber, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	event := events.SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: b.clock.Now(),
		Data:      data,
	}

	for _, sub := range snapshot {
		b.deliver(sub, event)
	}
}

// Typed emitters, one per lifecycle transition. Each is exactly Publish
// with the event type filled in.

// PublishCreated emits a created event
func (b *Bus) PublishCreated(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionCreated, sessionID, data)
}

// PublishUpdated emits an updated event
func (b *Bus) PublishUpdated(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionUpdated, sessionID, data)
}

// PublishEnded emits an ended event
func (b *Bus) PublishEnded(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionEnded, sessionID, data)
}

// PublishActivated emits an activated event
func (b *Bus) PublishActivated(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionActivated, sessionID, data)
}

// PublishDeactivated emits a deactivated event
func (b *Bus) PublishDeactivated(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionDeactivated, sessionID, data)
}

// PublishDeleted emits a deleted event
func (b *Bus) PublishDeleted(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionDeleted, sessionID, data)
}

// PublishViewed emits a viewed event
func (b *Bus) PublishViewed(sessionID string, data map[string]interface{}) {
	b.Publish(events.SessionViewed, sessionID, data)
}

// deliver runs one handler, containing both errors and panics
func (b *Bus) deliver(sub *subscriber, event events.SessionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("session event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("session_id", event.SessionID),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()

	if err := sub.handler(event); err != nil {
		b.logger.Error("session event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("session_id", event.SessionID),
			zap.Error(err),
		)
	}
}

// SubscriberCount reports how many handlers are registered for a type
func (b *Bus) SubscriberCount(eventType events.SessionEventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buckets[eventType])
}

func (b *Bus) remove(eventType events.SessionEventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.buckets[eventType]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		// Empty buckets are removed so Publish skips event construction
		delete(b.buckets, eventType)
	} else {
		b.buckets[eventType] = subs
	}
}

var _ ports.SessionBus = (*Bus)(nil)

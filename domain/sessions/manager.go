package sessions

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"webtrail/domain/core/entities"
	"webtrail/domain/events"
	pkgerrors "webtrail/pkg/errors"
)

// EventPublisher is the slice of the session event bus the manager needs.
// Publishing is synchronous and happens inside the manager's critical
// section, so subscribers observe transitions in order.
type EventPublisher interface {
	Publish(eventType events.SessionEventType, sessionID string, data map[string]interface{})
}

// Manager owns the active-session pointer and the session collection.
// Rollover is atomic from the caller's perspective: once any activity has
// occurred there is never an instant without an active session, except
// after an explicit manual end.
type Manager struct {
	mu           sync.RWMutex
	factory      *StrategyFactory
	publisher    EventPublisher
	logger       *zap.Logger
	sessions     map[string]*entities.BrowsingSession
	active       *entities.BrowsingSession
	lastActivity time.Time
}

// NewManager creates a session manager
func NewManager(factory *StrategyFactory, publisher EventPublisher, logger *zap.Logger) *Manager {
	return &Manager{
		factory:   factory,
		publisher: publisher,
		logger:    logger,
		sessions:  make(map[string]*entities.BrowsingSession),
	}
}

// Touch records an activity tick and returns the session it belongs to,
// rolling the session over first when the active strategy says the
// boundary has been crossed.
func (m *Manager) Touch(now time.Time) *entities.BrowsingSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategy := m.factory.Active()
	if strategy.ShouldCreateNewSession(m.lastActivity, now, m.active) {
		m.rollover(strategy, now)
	}
	m.lastActivity = now
	return m.active
}

// rollover ends the active session (if any) and activates a fresh one.
// Caller holds the lock.
func (m *Manager) rollover(strategy Strategy, now time.Time) {
	if m.active != nil {
		old := m.active
		if err := old.End(now); err != nil {
			m.logger.Error("failed to end session during rollover",
				zap.String("session_id", old.ID()),
				zap.Error(err),
			)
		} else {
			m.publish(events.SessionEnded, old.ID(), map[string]interface{}{
				"node_count": old.NodeCount(),
			})
		}
	}

	next := strategy.CreateSession(now)
	m.sessions[next.ID()] = next
	m.active = next

	// Creation is a fact before activation is a transition
	m.publish(events.SessionCreated, next.ID(), map[string]interface{}{
		"title":    next.Title(),
		"strategy": strategy.Name(),
	})
	m.publish(events.SessionActivated, next.ID(), nil)

	m.logger.Info("session rolled over",
		zap.String("session_id", next.ID()),
		zap.String("strategy", strategy.Name()),
	)
}

// Active returns the active session, or nil before any activity
func (m *Manager) Active() *entities.BrowsingSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// LastActivity returns the time of the most recent activity tick
func (m *Manager) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// Get returns a session by id
func (m *Manager) Get(id string) (*entities.BrowsingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("session")
	}
	return s, nil
}

// Sessions returns all sessions, the active one first and the rest by
// start time descending
func (m *Manager) Sessions() []*entities.BrowsingSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entities.BrowsingSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive() != out[j].IsActive() {
			return out[i].IsActive()
		}
		return out[i].StartTime().After(out[j].StartTime())
	})
	return out
}

// EndSession manually closes a session. Ending the active session leaves
// no session active; the next activity tick starts a fresh one.
func (m *Manager) EndSession(id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return pkgerrors.NewNotFoundError("session")
	}
	if err := s.End(now); err != nil {
		return err
	}

	if m.active != nil && m.active.ID() == id {
		m.active = nil
		m.publish(events.SessionDeactivated, id, nil)
	}
	m.publish(events.SessionEnded, id, map[string]interface{}{
		"node_count": s.NodeCount(),
	})
	return nil
}

// UpdateSession renames a session and notifies observers
func (m *Manager) UpdateSession(id, title, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return pkgerrors.NewNotFoundError("session")
	}
	if err := s.Rename(title, description); err != nil {
		return err
	}
	m.publish(events.SessionUpdated, id, map[string]interface{}{
		"title": s.Title(),
	})
	return nil
}

// DeleteSession removes an ended session from the registry
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return pkgerrors.NewNotFoundError("session")
	}
	if s.IsActive() {
		return pkgerrors.NewConflictError("cannot delete the active session")
	}
	delete(m.sessions, id)
	m.publish(events.SessionDeleted, id, nil)
	return nil
}

// MarkViewed notifies observers that a session was opened in the UI
func (m *Manager) MarkViewed(id string) {
	m.mu.RLock()
	_, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		m.publish(events.SessionViewed, id, nil)
	}
}

// Restore loads previously persisted sessions. A still-active restored
// session is re-adopted as the active one so a service restart does not
// fragment the user's day.
func (m *Manager) Restore(restored []*entities.BrowsingSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range restored {
		m.sessions[s.ID()] = s
		if s.IsActive() {
			m.active = s
			if s.StartTime().After(m.lastActivity) {
				m.lastActivity = s.StartTime()
			}
		}
	}
}

func (m *Manager) publish(t events.SessionEventType, sessionID string, data map[string]interface{}) {
	if m.publisher != nil {
		m.publisher.Publish(t, sessionID, data)
	}
}

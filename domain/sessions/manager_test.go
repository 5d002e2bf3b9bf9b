package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webtrail/domain/core/entities"
	"webtrail/domain/events"
	"webtrail/domain/sessions"
	pkgerrors "webtrail/pkg/errors"
)

type publishedEvent struct {
	Type      events.SessionEventType
	SessionID string
	Data      map[string]interface{}
}

type recordingPublisher struct {
	published []publishedEvent
}

func (r *recordingPublisher) Publish(t events.SessionEventType, sessionID string, data map[string]interface{}) {
	r.published = append(r.published, publishedEvent{Type: t, SessionID: sessionID, Data: data})
}

func (r *recordingPublisher) types() []events.SessionEventType {
	out := make([]events.SessionEventType, len(r.published))
	for i, e := range r.published {
		out[i] = e.Type
	}
	return out
}

func newTestManager(t *testing.T) (*sessions.Manager, *recordingPublisher) {
	t.Helper()
	logger := zap.NewNop()
	publisher := &recordingPublisher{}
	factory := sessions.NewStrategyFactory(30*time.Minute, logger)
	return sessions.NewManager(factory, publisher, logger), publisher
}

func TestManager_FirstTouchCreatesSession(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	session := manager.Touch(now)
	require.NotNil(t, session)
	assert.True(t, session.IsActive())
	assert.Same(t, session, manager.Active())
	assert.Equal(t, now, manager.LastActivity())

	// Creation is announced before activation
	assert.Equal(t, []events.SessionEventType{events.SessionCreated, events.SessionActivated}, publisher.types())
}

func TestManager_TouchWithinSessionDoesNotRoll(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	first := manager.Touch(now)
	second := manager.Touch(now.Add(time.Hour))

	assert.Same(t, first, second)
	assert.Len(t, publisher.published, 2, "no further lifecycle events on a plain tick")
}

func TestManager_RolloverEndsOldBeforeActivatingNew(t *testing.T) {
	manager, publisher := newTestManager(t)
	day1 := time.Date(2026, 8, 24, 22, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 25, 8, 0, 0, 0, time.Local)

	old := manager.Touch(day1)
	next := manager.Touch(day2)

	require.NotSame(t, old, next)
	assert.False(t, old.IsActive())
	assert.True(t, next.IsActive())
	assert.Same(t, next, manager.Active())

	assert.Equal(t, []events.SessionEventType{
		events.SessionCreated,
		events.SessionActivated,
		events.SessionEnded,
		events.SessionCreated,
		events.SessionActivated,
	}, publisher.types())

	ended := publisher.published[2]
	assert.Equal(t, old.ID(), ended.SessionID)
	assert.Equal(t, 0, ended.Data["node_count"])
}

func TestManager_EndActiveSessionLeavesNoneActive(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	session := manager.Touch(now)
	require.NoError(t, manager.EndSession(session.ID(), now.Add(time.Minute)))

	assert.Nil(t, manager.Active())
	assert.False(t, session.IsActive())

	// The next tick starts fresh
	next := manager.Touch(now.Add(2 * time.Minute))
	require.NotNil(t, next)
	assert.NotEqual(t, session.ID(), next.ID())

	assert.Equal(t, []events.SessionEventType{
		events.SessionCreated,
		events.SessionActivated,
		events.SessionDeactivated,
		events.SessionEnded,
		events.SessionCreated,
		events.SessionActivated,
	}, publisher.types())
}

func TestManager_EndSessionErrors(t *testing.T) {
	manager, _ := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	err := manager.EndSession("session-unknown", now)
	assert.True(t, pkgerrors.IsNotFound(err))

	session := manager.Touch(now)
	require.NoError(t, manager.EndSession(session.ID(), now.Add(time.Minute)))

	err = manager.EndSession(session.ID(), now.Add(2*time.Minute))
	assert.True(t, pkgerrors.IsConflict(err), "ending is terminal")
}

func TestManager_UpdateSession(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	session := manager.Touch(now)
	require.NoError(t, manager.UpdateSession(session.ID(), "Research", "digging into session policies"))

	assert.Equal(t, "Research", session.Title())
	assert.Equal(t, "digging into session policies", session.Description())
	assert.Equal(t, events.SessionUpdated, publisher.published[len(publisher.published)-1].Type)

	assert.True(t, pkgerrors.IsNotFound(manager.UpdateSession("session-unknown", "x", "")))

	require.NoError(t, manager.EndSession(session.ID(), now.Add(time.Minute)))
	assert.True(t, pkgerrors.IsValidation(manager.UpdateSession(session.ID(), "too late", "")))
}

func TestManager_DeleteSession(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	session := manager.Touch(now)

	err := manager.DeleteSession(session.ID())
	assert.True(t, pkgerrors.IsConflict(err), "the active session cannot be deleted")

	require.NoError(t, manager.EndSession(session.ID(), now.Add(time.Minute)))
	require.NoError(t, manager.DeleteSession(session.ID()))

	_, err = manager.Get(session.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, events.SessionDeleted, publisher.published[len(publisher.published)-1].Type)
}

func TestManager_MarkViewed(t *testing.T) {
	manager, publisher := newTestManager(t)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	session := manager.Touch(now)
	before := len(publisher.published)

	manager.MarkViewed(session.ID())
	require.Len(t, publisher.published, before+1)
	assert.Equal(t, events.SessionViewed, publisher.published[before].Type)

	manager.MarkViewed("session-unknown")
	assert.Len(t, publisher.published, before+1, "unknown sessions are ignored")
}

func TestManager_SessionsOrdering(t *testing.T) {
	manager, _ := newTestManager(t)
	day1 := time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	manager.Touch(day1)
	manager.Touch(day2)

	all := manager.Sessions()
	require.Len(t, all, 2)
	assert.True(t, all[0].IsActive(), "active session sorts first")
	assert.False(t, all[1].IsActive())
}

func TestManager_RestoreReAdoptsActiveSession(t *testing.T) {
	manager, _ := newTestManager(t)
	start := time.Date(2026, 8, 25, 8, 0, 0, 0, time.Local)
	endedAt := start.Add(-2 * time.Hour)

	active := entities.NewBrowsingSession("session-20260825-080000-001", start, "Today", "", nil)
	ended := entities.ReconstructSession("session-20260824-090000-002",
		start.Add(-23*time.Hour), &endedAt, "Yesterday", "", nil, []string{"n1"})

	manager.Restore([]*entities.BrowsingSession{ended, active})

	require.NotNil(t, manager.Active())
	assert.Equal(t, active.ID(), manager.Active().ID())
	assert.Equal(t, start, manager.LastActivity())
	assert.Len(t, manager.Sessions(), 2)

	// A tick on the same day continues the restored session
	assert.Same(t, active, manager.Touch(start.Add(time.Minute)))
}

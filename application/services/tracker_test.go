package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webtrail/application/services"
	domainconfig "webtrail/domain/config"
	"webtrail/domain/core/aggregates"
	"webtrail/domain/core/entities"
	"webtrail/domain/sessions"
	pkgerrors "webtrail/pkg/errors"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeTabs struct {
	known map[int]string
}

func newFakeTabs() *fakeTabs {
	return &fakeTabs{known: make(map[int]string)}
}

func (f *fakeTabs) RegisterTab(tabID int, url string) { f.known[tabID] = url }
func (f *fakeTabs) IsKnownTab(tabID int) bool         { _, ok := f.known[tabID]; return ok }
func (f *fakeTabs) ActiveTabs() []int {
	out := make([]int, 0, len(f.known))
	for id := range f.known {
		out = append(out, id)
	}
	return out
}

func newTestTracker(t *testing.T, clock *fakeClock) (*services.Tracker, *fakeTabs) {
	t.Helper()
	return newTestTrackerWithConfig(t, clock, domainconfig.DefaultDomainConfig())
}

func newTestTrackerWithConfig(t *testing.T, clock *fakeClock, cfg *domainconfig.DomainConfig) (*services.Tracker, *fakeTabs) {
	t.Helper()

	logger := zap.NewNop()
	factory := sessions.NewStrategyFactory(cfg.SessionIdleThreshold, logger)
	manager := sessions.NewManager(factory, nil, logger)
	graph := aggregates.NewGraph()
	ledger := services.NewPendingLedger(cfg.PendingNavigationTTL, cfg.MaxPendingPerKey, logger)
	tabs := newFakeTabs()

	return services.NewTracker(cfg, graph, ledger, manager, tabs, nil, nil, clock, logger), tabs
}

func TestTracker_MatchedIntentBuildsEdge(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	_, err := tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
		Type:        entities.NavigationTypeLink,
		SourceURL:   "https://a.com/start",
		TargetURL:   "https://b.com/landing",
		SourceTabID: 7,
		CreatedAt:   t0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tracker.PendingCount())

	node, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:          7,
		URL:            "https://b.com/landing",
		NavigationType: entities.NavigationTypeGeneric,
		Timestamp:      t0.Add(2 * time.Second),
	})
	require.NoError(t, err)

	// The intent's specific type beats the browser's generic one
	assert.Equal(t, entities.NavigationTypeLink, node.NavigationType())
	assert.False(t, node.ParentID().IsZero())
	assert.Equal(t, 0, tracker.PendingCount(), "the matched intent is consumed")

	snap := tracker.GraphSnapshot()
	assert.Len(t, snap.Nodes, 2, "target node plus the recreated source node")
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, node.ParentID().String(), snap.Edges[0].SourceID)
	assert.Equal(t, node.ID().String(), snap.Edges[0].TargetID)
	assert.Equal(t, string(entities.NavigationTypeLink), snap.Edges[0].NavigationType)
}

func TestTracker_EmptyTypesStillProduceTypedEdge(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	// Neither signal carries a type: the intent defaults to the generic
	// type and the browser reports nothing
	_, err := tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
		SourceURL:   "https://a.com/start",
		TargetURL:   "https://b.com/landing",
		SourceTabID: 7,
		CreatedAt:   t0,
	})
	require.NoError(t, err)

	_, err = tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://b.com/landing",
		Timestamp: t0.Add(time.Second),
	})
	require.NoError(t, err)

	snap := tracker.GraphSnapshot()
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, string(entities.NavigationTypeGeneric), snap.Edges[0].NavigationType)
}

func TestTracker_SelfEdges(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	selfIntentThenNavigation := func(t *testing.T, tracker *services.Tracker) {
		t.Helper()
		_, err := tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
			Type:        entities.NavigationTypeJS,
			SourceURL:   "https://a.com/page",
			TargetURL:   "https://a.com/page",
			SourceTabID: 7,
			CreatedAt:   t0,
		})
		require.NoError(t, err)

		_, err = tracker.RecordNavigation(ctx, services.RecordNavigationInput{
			TabID:     7,
			URL:       "https://a.com/page",
			Timestamp: t0.Add(time.Second),
		})
		require.NoError(t, err)
	}

	t.Run("recorded by default", func(t *testing.T) {
		tracker, _ := newTestTracker(t, &fakeClock{now: t0})
		selfIntentThenNavigation(t, tracker)

		snap := tracker.GraphSnapshot()
		assert.Len(t, snap.Nodes, 1)
		require.Len(t, snap.Edges, 1)
		assert.Equal(t, snap.Edges[0].SourceID, snap.Edges[0].TargetID)
	})

	t.Run("suppressed when disallowed", func(t *testing.T) {
		cfg := domainconfig.DefaultDomainConfig()
		cfg.AllowSelfEdges = false
		tracker, _ := newTestTrackerWithConfig(t, &fakeClock{now: t0}, cfg)
		selfIntentThenNavigation(t, tracker)

		snap := tracker.GraphSnapshot()
		assert.Len(t, snap.Nodes, 1)
		assert.Empty(t, snap.Edges)
	})
}

func TestTracker_SessionNodeCapBoundsMembership(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	cfg := domainconfig.DefaultDomainConfig()
	cfg.MaxNodesPerSession = 2
	tracker, _ := newTestTrackerWithConfig(t, &fakeClock{now: t0}, cfg)
	ctx := context.Background()

	for i, url := range []string{"https://a.com", "https://b.com", "https://c.com"} {
		_, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
			TabID:     7,
			URL:       url,
			Timestamp: t0.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	session := tracker.ActiveSession()
	require.NotNil(t, session)
	assert.Equal(t, 2, session.NodeCount(), "membership stops at the cap")

	snap := tracker.GraphSnapshot()
	assert.Len(t, snap.Nodes, 3, "the graph still records every visit")
}

func TestTracker_UnmatchedNavigationIsRoot(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)

	node, err := tracker.RecordNavigation(context.Background(), services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://example.com",
		Timestamp: t0,
	})
	require.NoError(t, err)

	assert.True(t, node.ParentID().IsZero())
	assert.Equal(t, entities.NavigationTypeGeneric, node.NavigationType())

	snap := tracker.GraphSnapshot()
	assert.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Edges)
}

func TestTracker_ExpiredIntentFallsBackToRoot(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	_, err := tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
		Type:        entities.NavigationTypeLink,
		SourceURL:   "https://a.com",
		TargetURL:   "https://b.com",
		SourceTabID: 7,
		CreatedAt:   t0,
	})
	require.NoError(t, err)

	node, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://b.com",
		Timestamp: t0.Add(31 * time.Second),
	})
	require.NoError(t, err)

	assert.True(t, node.ParentID().IsZero())
	assert.Equal(t, 0, tracker.PendingCount())
}

func TestTracker_RepeatedTransitionsAreNotDeduplicated(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		at := t0.Add(time.Duration(i) * 10 * time.Second)
		_, err := tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
			Type:        entities.NavigationTypeLink,
			SourceURL:   "https://a.com",
			TargetURL:   "https://b.com",
			SourceTabID: 7,
			CreatedAt:   at,
		})
		require.NoError(t, err)

		_, err = tracker.RecordNavigation(ctx, services.RecordNavigationInput{
			TabID:     7,
			URL:       "https://b.com",
			Timestamp: at.Add(time.Second),
		})
		require.NoError(t, err)
	}

	snap := tracker.GraphSnapshot()
	assert.Len(t, snap.Nodes, 2, "revisits address the same nodes")
	require.Len(t, snap.Edges, 2, "each transition keeps its own edge")
	assert.NotEqual(t, snap.Edges[0].ID, snap.Edges[1].ID)
}

func TestTracker_NewTabInferenceForUnknownTab(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	first, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://a.com",
		Timestamp: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.OpenTargetNewTab, first.OpenTarget(),
		"a navigation on a never-seen tab implies the tab is new")

	second, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://a.com/next",
		Timestamp: t0.Add(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.OpenTargetSameTab, second.OpenTarget())
}

func TestTracker_NodesJoinActiveSession(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	assert.Nil(t, tracker.ActiveSession(), "no session before any activity")

	node, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://a.com",
		Timestamp: t0,
	})
	require.NoError(t, err)

	session := tracker.ActiveSession()
	require.NotNil(t, session)
	assert.Equal(t, session.ID(), node.SessionID())
	assert.Equal(t, 1, session.NodeCount())
	assert.Contains(t, session.NodeIDs(), node.ID().String())
}

func TestTracker_EndSession(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	_, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://a.com",
		Timestamp: t0,
	})
	require.NoError(t, err)

	session := tracker.ActiveSession()
	require.NotNil(t, session)

	clock.now = t0.Add(time.Minute)
	require.NoError(t, tracker.EndSession(ctx, session.ID()))
	assert.Nil(t, tracker.ActiveSession())
	assert.False(t, session.IsActive())

	err = tracker.EndSession(ctx, "session-does-not-exist")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTracker_UpdateNodeMetadata(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)
	ctx := context.Background()

	node, err := tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:     7,
		URL:       "https://a.com",
		Timestamp: t0,
	})
	require.NoError(t, err)

	tracker.UpdateNodeMetadata(ctx, node.ID().String(), entities.Metadata{
		Title: "Rendered Title",
	}, entities.SourceContentScript)

	got, err := tracker.Node(node.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "Rendered Title", got.Metadata().Title)

	// A weaker source cannot overwrite what the content script reported
	tracker.UpdateNodeMetadata(ctx, node.ID().String(), entities.Metadata{
		Title: "Stale Title",
	}, entities.SourceNavigationEvent)

	got, err = tracker.Node(node.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "Rendered Title", got.Metadata().Title)
}

func TestTracker_MetadataForUnknownNodeIsSwallowed(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, _ := newTestTracker(t, clock)

	assert.NotPanics(t, func() {
		tracker.UpdateNodeMetadata(context.Background(), "99-nowhere.com-zzz", entities.Metadata{
			Title: "orphan",
		}, entities.SourceBrowserAPI)
	})

	_, err := tracker.Node("99-nowhere.com-zzz")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTracker_RecordNavigationRequiresURL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tracker, _ := newTestTracker(t, clock)

	_, err := tracker.RecordNavigation(context.Background(), services.RecordNavigationInput{TabID: 1})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestTracker_RegistersTabsItSees(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	tracker, tabs := newTestTracker(t, clock)

	_, err := tracker.RecordNavigation(context.Background(), services.RecordNavigationInput{
		TabID:     42,
		URL:       "https://a.com",
		Timestamp: t0,
	})
	require.NoError(t, err)

	assert.True(t, tabs.IsKnownTab(42))
	assert.Equal(t, []int{42}, tabs.ActiveTabs())
}

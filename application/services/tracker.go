package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"webtrail/application/ports"
	domainconfig "webtrail/domain/config"
	"webtrail/domain/core/aggregates"
	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
	"webtrail/domain/sessions"
	pkgerrors "webtrail/pkg/errors"
	"webtrail/pkg/observability"
)

// Tracker is the single serialized entry point for every navigation
// signal. One mutex stands in for the single event-processing path: the
// graph, the pending ledger and the active-session pointer are only ever
// mutated under it, which keeps the cross-resource invariants (edge
// endpoints exist, nodes join the currently active session) atomic.
type Tracker struct {
	cfg      *domainconfig.DomainConfig
	graph    *aggregates.Graph
	ledger   *PendingLedger
	sessions *sessions.Manager
	tabs     ports.TabDirectory
	events   ports.EventPublisher
	metrics  *observability.Metrics
	clock    ports.Clock
	logger   *zap.Logger

	mu chan struct{} // 1-slot semaphore; see lock()
}

// NewTracker creates the tracking service
func NewTracker(
	cfg *domainconfig.DomainConfig,
	graph *aggregates.Graph,
	ledger *PendingLedger,
	sessionManager *sessions.Manager,
	tabs ports.TabDirectory,
	eventPublisher ports.EventPublisher,
	metrics *observability.Metrics,
	clock ports.Clock,
	logger *zap.Logger,
) *Tracker {
	if clock == nil {
		clock = ports.SystemClock
	}
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	t := &Tracker{
		cfg:      cfg,
		graph:    graph,
		ledger:   ledger,
		sessions: sessionManager,
		tabs:     tabs,
		events:   eventPublisher,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
		mu:       make(chan struct{}, 1),
	}
	return t
}

func (t *Tracker) lock()   { t.mu <- struct{}{} }
func (t *Tracker) unlock() { <-t.mu }

// RecordNavigationInput carries a browser-reported committed navigation
type RecordNavigationInput struct {
	TabID          int
	URL            string
	NavigationType entities.NavigationType
	OpenTarget     entities.OpenTarget
	Timestamp      time.Time
	SourceFrameID  int
	ParentFrameID  int
	Metadata       entities.Metadata
}

// RecordNavigation is the main entry point once the browser confirms a
// navigation committed. It tries to consume a matching intent from the
// ledger; on a match the intent supplies the edge source and its more
// specific navigation type, otherwise the visit becomes a parentless
// root node (typed URL, bookmark, browser restart).
func (t *Tracker) RecordNavigation(ctx context.Context, in RecordNavigationInput) (*entities.Node, error) {
	if in.URL == "" {
		return nil, pkgerrors.NewValidationError("url is required")
	}

	t.lock()
	defer t.unlock()

	now := in.Timestamp
	if now.IsZero() {
		now = t.clock.Now()
	}

	session := t.sessions.Touch(now)
	committed := valueobjects.NewPageURL(in.URL)

	var node *entities.Node
	if intent := t.ledger.Consume(in.TabID, committed, now); intent != nil {
		t.count(observability.MetricIntentsMatched)
		node = t.recordMatched(in, intent, session.ID(), now)
	} else {
		node = t.recordUnmatched(in, session.ID(), now)
	}

	if t.tabs != nil {
		t.tabs.RegisterTab(in.TabID, committed.Normalized())
	}

	t.flushDomainEvents(ctx)
	return node, nil
}

// recordMatched builds the target node and the causal edge from a
// consumed intent. Caller holds the lock.
func (t *Tracker) recordMatched(in RecordNavigationInput, intent *entities.PendingNavigation, sessionID string, now time.Time) *entities.Node {
	sourceID := t.resolveIntentSource(intent, sessionID)

	// The intent's type is more specific than the browser's generic
	// "navigate" and therefore wins
	navType := intent.Type
	if navType == "" || navType == entities.NavigationTypeGeneric {
		navType = in.NavigationType
	}
	if navType == "" {
		// Both signals were untyped; edges never carry an empty type
		navType = entities.NavigationTypeGeneric
	}

	openTarget := in.OpenTarget
	if openTarget == "" {
		openTarget = entities.OpenTargetSameTab
		if intent.IsNewTab {
			openTarget = entities.OpenTargetNewTab
		}
	}

	node, created := t.graph.CreateOrGetNode(entities.NodeCreationOptions{
		TabID:          in.TabID,
		URL:            in.URL,
		NavigationType: navType,
		OpenTarget:     openTarget,
		ParentID:       sourceID,
		Metadata:       in.Metadata,
		MetadataSource: entities.SourceNavigationEvent,
		SourceFrameID:  in.SourceFrameID,
		ParentFrameID:  in.ParentFrameID,
		CreatedAt:      now,
	}, sessionID)
	t.noteNode(node, created, sessionID)

	switch {
	case sourceID.IsZero():
	case sourceID.Equals(node.ID()) && !t.cfg.AllowSelfEdges:
		t.logger.Debug("self edge suppressed", zap.String("node_id", node.ID().String()))
	default:
		if _, err := t.graph.CreateEdge(sourceID, node.ID(), navType, now); err != nil {
			// Contained: a dangling reference under-records one edge but
			// must never take the pipeline down
			t.logger.Error("edge creation failed",
				zap.String("source", sourceID.String()),
				zap.String("target", node.ID().String()),
				zap.Error(err),
			)
		} else {
			t.count(observability.MetricEdgesCreated)
		}
	}

	return node
}

// recordUnmatched creates a root-level node with no inferred parent.
// Caller holds the lock.
func (t *Tracker) recordUnmatched(in RecordNavigationInput, sessionID string, now time.Time) *entities.Node {
	navType := in.NavigationType
	if navType == "" {
		navType = entities.NavigationTypeGeneric
	}

	openTarget := in.OpenTarget
	if openTarget == "" {
		openTarget = entities.OpenTargetSameTab
		if t.tabs != nil && !t.tabs.IsKnownTab(in.TabID) {
			openTarget = entities.OpenTargetNewTab
		}
	}

	node, created := t.graph.CreateOrGetNode(entities.NodeCreationOptions{
		TabID:          in.TabID,
		URL:            in.URL,
		NavigationType: navType,
		OpenTarget:     openTarget,
		Metadata:       in.Metadata,
		MetadataSource: entities.SourceNavigationEvent,
		SourceFrameID:  in.SourceFrameID,
		ParentFrameID:  in.ParentFrameID,
		CreatedAt:      now,
	}, sessionID)
	t.noteNode(node, created, sessionID)

	return node
}

// resolveIntentSource finds or recreates the node the intent originated
// from, so the edge always has a live source endpoint. Caller holds the
// lock.
func (t *Tracker) resolveIntentSource(intent *entities.PendingNavigation, sessionID string) valueobjects.NodeID {
	sourceID := intent.SourceNodeID

	if !sourceID.IsZero() {
		if _, ok := t.graph.Node(sourceID); ok {
			return sourceID
		}
	}

	if intent.SourceURL == "" {
		return valueobjects.NodeID{}
	}

	source, created := t.graph.CreateOrGetNode(entities.NodeCreationOptions{
		TabID:          intent.SourceTabID,
		URL:            intent.SourceURL,
		NavigationType: entities.NavigationTypeGeneric,
		CreatedAt:      intent.CreatedAt,
	}, sessionID)
	t.noteNode(source, created, sessionID)
	return source.ID()
}

// noteNode registers a freshly created node with its session and the
// metrics pipeline. A session already holding MaxNodesPerSession nodes
// accepts no more members; the visit is still recorded in the graph.
// Caller holds the lock.
func (t *Tracker) noteNode(node *entities.Node, created bool, sessionID string) {
	if !created {
		return
	}
	if session, err := t.sessions.Get(sessionID); err == nil {
		if t.cfg.MaxNodesPerSession > 0 && session.NodeCount() >= t.cfg.MaxNodesPerSession {
			t.logger.Warn("session node cap reached, visit left unassigned",
				zap.String("node_id", node.ID().String()),
				zap.String("session_id", sessionID),
				zap.Int("cap", t.cfg.MaxNodesPerSession),
			)
		} else if err := session.AddNode(node.ID().String()); err != nil {
			t.logger.Warn("node created against an ended session",
				zap.String("node_id", node.ID().String()),
				zap.String("session_id", sessionID),
			)
		}
	}
	t.count(observability.MetricNodesCreated)
}

// RecordIntent stores a user-initiated navigation signal observed in a
// page context, to be matched against a committed navigation later
func (t *Tracker) RecordIntent(ctx context.Context, opts entities.PendingNavigationOptions) (*entities.PendingNavigation, error) {
	if opts.TargetURL == "" {
		return nil, pkgerrors.NewValidationError("target url is required")
	}

	t.lock()
	defer t.unlock()

	now := opts.CreatedAt
	if now.IsZero() {
		now = t.clock.Now()
	}
	opts.CreatedAt = now

	// Intents are user activity and keep the session alive
	t.sessions.Touch(now)

	intent := entities.NewPendingNavigation(opts)
	swept := t.ledger.Record(intent, now)

	t.count(observability.MetricIntentsRecorded)
	if swept > 0 && t.metrics != nil {
		t.metrics.Count(observability.MetricIntentsExpired, float64(swept))
	}

	return intent, nil
}

// UpdateNodeMetadata enriches a node once richer page metadata becomes
// available. A missing node is logged and swallowed: metadata arriving
// after a node was never created is non-fatal by design.
func (t *Tracker) UpdateNodeMetadata(ctx context.Context, nodeID string, md entities.Metadata, source entities.MetadataSource) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		t.logger.Warn("metadata update with unusable node id", zap.String("node_id", nodeID))
		return
	}

	t.lock()
	defer t.unlock()

	if err := t.graph.UpdateNodeMetadata(id, md, source); err != nil {
		t.logger.Warn("metadata update for unknown node",
			zap.String("node_id", nodeID),
			zap.String("source", source.String()),
		)
		return
	}
	t.flushDomainEvents(ctx)
}

// ActiveSession returns the currently active session, or nil before any
// activity
func (t *Tracker) ActiveSession() *entities.BrowsingSession {
	return t.sessions.Active()
}

// Sessions returns all known sessions
func (t *Tracker) Sessions() []*entities.BrowsingSession {
	return t.sessions.Sessions()
}

// Session returns one session by id
func (t *Tracker) Session(id string) (*entities.BrowsingSession, error) {
	return t.sessions.Get(id)
}

// EndSession manually closes a session
func (t *Tracker) EndSession(ctx context.Context, id string) error {
	t.lock()
	defer t.unlock()
	if err := t.sessions.EndSession(id, t.clock.Now()); err != nil {
		return err
	}
	t.count(observability.MetricSessionsEnded)
	return nil
}

// Node returns a node by id
func (t *Tracker) Node(nodeID string) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid node id")
	}

	t.lock()
	defer t.unlock()

	node, ok := t.graph.Node(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

// GraphSnapshot produces a point-in-time copy of the graph for
// persistence or visualization
func (t *Tracker) GraphSnapshot() *aggregates.Snapshot {
	t.lock()
	defer t.unlock()
	return t.graph.Snapshot(t.clock.Now())
}

// PendingCount reports how many intents are awaiting confirmation
func (t *Tracker) PendingCount() int {
	t.lock()
	defer t.unlock()
	return t.ledger.Len()
}

// flushDomainEvents forwards accumulated graph events to the external
// publisher, best effort. Caller holds the lock.
func (t *Tracker) flushDomainEvents(ctx context.Context) {
	pending := t.graph.GetUncommittedEvents()
	if len(pending) == 0 {
		return
	}
	t.graph.MarkEventsAsCommitted()

	if t.events == nil {
		return
	}
	if err := t.events.PublishBatch(ctx, pending); err != nil {
		t.logger.Warn("failed to publish domain events",
			zap.Int("count", len(pending)),
			zap.Error(err),
		)
	}
}

func (t *Tracker) count(metric string) {
	if t.metrics != nil {
		t.metrics.Increment(metric)
	}
}

package aggregates

import (
	"time"

	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
	"webtrail/domain/events"
	pkgerrors "webtrail/pkg/errors"
)

// Edge is a directed causal transition between two page visits. Edges are
// immutable once created and are never deduplicated: navigating A to B
// twice leaves two edges with two timestamps, preserving temporal history.
type Edge struct {
	ID        string
	SourceID  valueobjects.NodeID
	TargetID  valueobjects.NodeID
	Type      entities.NavigationType
	CreatedAt time.Time
}

// Graph is the aggregate root owning the node and edge collections. All
// mutation goes through it so the endpoint invariant (edges reference
// existing nodes) holds at every step.
type Graph struct {
	nodes  map[valueobjects.NodeID]*entities.Node
	edges  []*Edge
	events []events.DomainEvent
}

// NewGraph creates an empty navigation graph
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[valueobjects.NodeID]*entities.Node),
	}
}

// CreateOrGetNode returns the node addressed by the options' (tabID, URL)
// identity, creating it under the given session when absent. An existing
// node absorbs the incoming metadata under source precedence and trades
// a generic navigation type for a more specific one instead of being
// replaced. The second return value reports whether a node was created.
func (g *Graph) CreateOrGetNode(opts entities.NodeCreationOptions, sessionID string) (*entities.Node, bool) {
	id := valueobjects.NodeIDFor(opts.TabID, opts.URL)

	if existing, ok := g.nodes[id]; ok {
		source := opts.MetadataSource
		if source == 0 {
			source = entities.SourceNavigationEvent
		}
		existing.ApplyMetadata(opts.Metadata, source)
		existing.PromoteNavigationType(opts.NavigationType)
		if !opts.ParentID.IsZero() {
			existing.SetParent(opts.ParentID)
		}
		return existing, false
	}

	node := entities.NewNode(opts, sessionID)
	g.nodes[node.ID()] = node

	g.addEvent(events.NewNodeCreated(
		node.ID().String(),
		node.TabID(),
		node.URL().Normalized(),
		string(node.NavigationType()),
		sessionID,
		node.ParentID().String(),
		node.CreatedAt(),
	))

	return node, true
}

// CreateEdge records a causal transition. Both endpoints must already
// exist; a dangling reference aborts the operation with no partial edge
// left behind.
func (g *Graph) CreateEdge(sourceID, targetID valueobjects.NodeID, navType entities.NavigationType, at time.Time) (*Edge, error) {
	if _, ok := g.nodes[sourceID]; !ok {
		return nil, pkgerrors.NewInvalidReferenceError(sourceID.String())
	}
	if _, ok := g.nodes[targetID]; !ok {
		return nil, pkgerrors.NewInvalidReferenceError(targetID.String())
	}

	edge := &Edge{
		ID:        valueobjects.EdgeIDFor(sourceID, targetID, at),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      navType,
		CreatedAt: at,
	}
	g.edges = append(g.edges, edge)

	g.addEvent(events.NewEdgeCreated(
		edge.ID,
		sourceID.String(),
		targetID.String(),
		string(navType),
		at,
	))

	return edge, nil
}

// Node returns a node by id
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes
func (g *Graph) Nodes() []*entities.Node {
	out := make([]*entities.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns a copy of the edge list in creation order
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// UpdateNodeMetadata enriches a node with late-arriving metadata. A
// missing node is a NotFound error the caller downgrades to a warning:
// metadata is best-effort enrichment, not structural data.
func (g *Graph) UpdateNodeMetadata(id valueobjects.NodeID, md entities.Metadata, source entities.MetadataSource) error {
	node, ok := g.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	if node.ApplyMetadata(md, source) {
		g.addEvent(events.NewNodeMetadataUpdated(
			id.String(),
			source.String(),
			md.Title,
			time.Now(),
		))
	}
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	return g.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.events = nil
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

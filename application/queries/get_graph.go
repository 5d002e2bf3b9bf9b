package queries

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
)

// GetGraphDataQuery asks for the full navigation graph, optionally
// restricted to one session
type GetGraphDataQuery struct {
	SessionID string `json:"session_id"`
}

// Validate validates the query
func (q GetGraphDataQuery) Validate() error { return nil }

// GetGraphDataHandler handles the GetGraphDataQuery
type GetGraphDataHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewGetGraphDataHandler creates a new handler instance
func NewGetGraphDataHandler(tracker *services.Tracker, logger *zap.Logger) *GetGraphDataHandler {
	return &GetGraphDataHandler{tracker: tracker, logger: logger}
}

// Handle returns the graph view built from a point-in-time snapshot
func (h *GetGraphDataHandler) Handle(ctx context.Context, q GetGraphDataQuery) (*GraphView, error) {
	snap := h.tracker.GraphSnapshot()
	view := NewGraphView(snap)

	if q.SessionID == "" {
		return view, nil
	}

	// Session filter keeps only that session's nodes and the edges whose
	// endpoints both survive
	kept := make(map[string]bool, len(view.Nodes))
	nodes := view.Nodes[:0]
	for _, n := range view.Nodes {
		if n.SessionID == q.SessionID {
			kept[n.ID] = true
			nodes = append(nodes, n)
		}
	}

	edges := view.Edges[:0]
	for _, e := range view.Edges {
		if kept[e.SourceID] && kept[e.TargetID] {
			edges = append(edges, e)
		}
	}

	view.Nodes = nodes
	view.Edges = edges
	view.NodeCount = len(nodes)
	view.EdgeCount = len(edges)
	return view, nil
}

// GetNodeQuery asks for one node by id
type GetNodeQuery struct {
	NodeID string `json:"node_id" validate:"required"`
}

// Validate validates the query
func (q GetNodeQuery) Validate() error {
	if q.NodeID == "" {
		return errors.New("node ID is required")
	}
	return nil
}

// GetNodeHandler handles the GetNodeQuery
type GetNodeHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewGetNodeHandler creates a new handler instance
func NewGetNodeHandler(tracker *services.Tracker, logger *zap.Logger) *GetNodeHandler {
	return &GetNodeHandler{tracker: tracker, logger: logger}
}

// Handle returns one node view
func (h *GetNodeHandler) Handle(ctx context.Context, q GetNodeQuery) (*NodeView, error) {
	node, err := h.tracker.Node(q.NodeID)
	if err != nil {
		return nil, err
	}
	view := NewNodeView(node)
	return &view, nil
}

package queries

import (
	"time"

	"webtrail/domain/core/aggregates"
	"webtrail/domain/core/entities"
)

// NodeView is the read-model shape of a node
type NodeView struct {
	ID             string    `json:"id"`
	TabID          int       `json:"tab_id"`
	URL            string    `json:"url"`
	Domain         string    `json:"domain"`
	NavigationType string    `json:"navigation_type"`
	OpenTarget     string    `json:"open_target"`
	ParentID       string    `json:"parent_id,omitempty"`
	SessionID      string    `json:"session_id"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	FaviconURL     string    `json:"favicon_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EdgeView is the read-model shape of an edge
type EdgeView struct {
	ID             string    `json:"id"`
	SourceID       string    `json:"source_id"`
	TargetID       string    `json:"target_id"`
	NavigationType string    `json:"navigation_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// GraphView is the read-model shape of the whole graph
type GraphView struct {
	Nodes     []NodeView `json:"nodes"`
	Edges     []EdgeView `json:"edges"`
	NodeCount int        `json:"node_count"`
	EdgeCount int        `json:"edge_count"`
}

// SessionView is the read-model shape of a session
type SessionView struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	IsActive    bool                   `json:"is_active"`
	NodeCount   int                    `json:"node_count"`
	NodeIDs     []string               `json:"node_ids,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewNodeView maps a node entity to its view
func NewNodeView(n *entities.Node) NodeView {
	md := n.Metadata()
	return NodeView{
		ID:             n.ID().String(),
		TabID:          n.TabID(),
		URL:            n.URL().Raw(),
		Domain:         n.URL().Domain(),
		NavigationType: string(n.NavigationType()),
		OpenTarget:     string(n.OpenTarget()),
		ParentID:       n.ParentID().String(),
		SessionID:      n.SessionID(),
		Title:          md.Title,
		Description:    md.Description,
		FaviconURL:     md.FaviconURL,
		CreatedAt:      n.CreatedAt(),
	}
}

// NewGraphView maps a graph snapshot to its view
func NewGraphView(snap *aggregates.Snapshot) *GraphView {
	view := &GraphView{
		Nodes: make([]NodeView, 0, len(snap.Nodes)),
		Edges: make([]EdgeView, 0, len(snap.Edges)),
	}

	for _, rec := range snap.Nodes {
		view.Nodes = append(view.Nodes, NodeView{
			ID:             rec.ID,
			TabID:          rec.TabID,
			URL:            rec.URL,
			NavigationType: rec.NavigationType,
			OpenTarget:     rec.OpenTarget,
			ParentID:       rec.ParentID,
			SessionID:      rec.SessionID,
			Title:          rec.Metadata.Title,
			Description:    rec.Metadata.Description,
			FaviconURL:     rec.Metadata.FaviconURL,
			CreatedAt:      rec.CreatedAt,
		})
	}

	for _, rec := range snap.Edges {
		view.Edges = append(view.Edges, EdgeView{
			ID:             rec.ID,
			SourceID:       rec.SourceID,
			TargetID:       rec.TargetID,
			NavigationType: rec.NavigationType,
			CreatedAt:      rec.CreatedAt,
		})
	}

	view.NodeCount = len(view.Nodes)
	view.EdgeCount = len(view.Edges)
	return view
}

// NewSessionView maps a session entity to its view
func NewSessionView(s *entities.BrowsingSession, includeNodes bool) SessionView {
	view := SessionView{
		ID:          s.ID(),
		Title:       s.Title(),
		Description: s.Description(),
		StartTime:   s.StartTime(),
		IsActive:    s.IsActive(),
		NodeCount:   s.NodeCount(),
		Metadata:    s.Metadata(),
	}
	view.EndTime = s.EndTime()
	if includeNodes {
		view.NodeIDs = s.NodeIDs()
	}
	return view
}

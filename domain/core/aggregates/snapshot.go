package aggregates

import (
	"time"

	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
)

// NodeRecord is the persisted form of a node
type NodeRecord struct {
	ID             string            `json:"id" dynamodbav:"ID"`
	TabID          int               `json:"tab_id" dynamodbav:"TabID"`
	URL            string            `json:"url" dynamodbav:"URL"`
	NavigationType string            `json:"navigation_type" dynamodbav:"NavigationType"`
	OpenTarget     string            `json:"open_target" dynamodbav:"OpenTarget"`
	ParentID       string            `json:"parent_id,omitempty" dynamodbav:"ParentID,omitempty"`
	SessionID      string            `json:"session_id" dynamodbav:"SessionID"`
	Metadata       entities.Metadata `json:"metadata" dynamodbav:"Metadata"`
	SourceFrameID  int               `json:"source_frame_id,omitempty" dynamodbav:"SourceFrameID,omitempty"`
	ParentFrameID  int               `json:"parent_frame_id,omitempty" dynamodbav:"ParentFrameID,omitempty"`
	CreatedAt      time.Time         `json:"created_at" dynamodbav:"CreatedAt"`
}

// EdgeRecord is the persisted form of an edge
type EdgeRecord struct {
	ID             string    `json:"id" dynamodbav:"ID"`
	SourceID       string    `json:"source_id" dynamodbav:"SourceID"`
	TargetID       string    `json:"target_id" dynamodbav:"TargetID"`
	NavigationType string    `json:"navigation_type" dynamodbav:"NavigationType"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"CreatedAt"`
}

// Snapshot is a point-in-time serializable copy of the whole graph
type Snapshot struct {
	TakenAt time.Time    `json:"taken_at" dynamodbav:"TakenAt"`
	Nodes   []NodeRecord `json:"nodes" dynamodbav:"Nodes"`
	Edges   []EdgeRecord `json:"edges" dynamodbav:"Edges"`
}

// Snapshot produces a serializable copy of the graph
func (g *Graph) Snapshot(now time.Time) *Snapshot {
	snap := &Snapshot{
		TakenAt: now,
		Nodes:   make([]NodeRecord, 0, len(g.nodes)),
		Edges:   make([]EdgeRecord, 0, len(g.edges)),
	}

	for _, n := range g.nodes {
		snap.Nodes = append(snap.Nodes, NodeRecord{
			ID:             n.ID().String(),
			TabID:          n.TabID(),
			URL:            n.URL().Raw(),
			NavigationType: string(n.NavigationType()),
			OpenTarget:     string(n.OpenTarget()),
			ParentID:       n.ParentID().String(),
			SessionID:      n.SessionID(),
			Metadata:       n.Metadata(),
			SourceFrameID:  n.SourceFrameID(),
			ParentFrameID:  n.ParentFrameID(),
			CreatedAt:      n.CreatedAt(),
		})
	}

	for _, e := range g.edges {
		snap.Edges = append(snap.Edges, EdgeRecord{
			ID:             e.ID,
			SourceID:       e.SourceID.String(),
			TargetID:       e.TargetID.String(),
			NavigationType: string(e.Type),
			CreatedAt:      e.CreatedAt,
		})
	}

	return snap
}

// RestoreGraph rebuilds a graph from a snapshot. Records with unusable
// ids are skipped rather than failing the whole restore.
func RestoreGraph(snap *Snapshot) *Graph {
	g := NewGraph()
	if snap == nil {
		return g
	}

	for _, rec := range snap.Nodes {
		id, err := valueobjects.NewNodeIDFromString(rec.ID)
		if err != nil {
			continue
		}
		parentID := valueobjects.NodeID{}
		if rec.ParentID != "" {
			parentID, _ = valueobjects.NewNodeIDFromString(rec.ParentID)
		}
		node := entities.ReconstructNode(
			id,
			rec.TabID,
			rec.URL,
			entities.NavigationType(rec.NavigationType),
			entities.OpenTarget(rec.OpenTarget),
			parentID,
			rec.SessionID,
			rec.Metadata,
			rec.SourceFrameID,
			rec.ParentFrameID,
			rec.CreatedAt,
		)
		g.nodes[node.ID()] = node
	}

	for _, rec := range snap.Edges {
		sourceID, serr := valueobjects.NewNodeIDFromString(rec.SourceID)
		targetID, terr := valueobjects.NewNodeIDFromString(rec.TargetID)
		if serr != nil || terr != nil {
			continue
		}
		if _, ok := g.nodes[sourceID]; !ok {
			continue
		}
		if _, ok := g.nodes[targetID]; !ok {
			continue
		}
		g.edges = append(g.edges, &Edge{
			ID:        rec.ID,
			SourceID:  sourceID,
			TargetID:  targetID,
			Type:      entities.NavigationType(rec.NavigationType),
			CreatedAt: rec.CreatedAt,
		})
	}

	return g
}

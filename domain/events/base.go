package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Node Events

// NodeCreated is raised when a page visit is first recorded
type NodeCreated struct {
	BaseEvent
	NodeID         string `json:"node_id"`
	TabID          int    `json:"tab_id"`
	URL            string `json:"url"`
	NavigationType string `json:"navigation_type"`
	SessionID      string `json:"session_id"`
	ParentNodeID   string `json:"parent_node_id,omitempty"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID string, tabID int, url, navigationType, sessionID, parentNodeID string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID,
			EventType:   "node.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:         nodeID,
		TabID:          tabID,
		URL:            url,
		NavigationType: navigationType,
		SessionID:      sessionID,
		ParentNodeID:   parentNodeID,
	}
}

// NodeMetadataUpdated is raised when page metadata is enriched after creation
type NodeMetadataUpdated struct {
	BaseEvent
	NodeID string `json:"node_id"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// NewNodeMetadataUpdated creates a NodeMetadataUpdated event
func NewNodeMetadataUpdated(nodeID, source, title string, timestamp time.Time) NodeMetadataUpdated {
	return NodeMetadataUpdated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID,
			EventType:   "node.metadata_updated",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID: nodeID,
		Source: source,
		Title:  title,
	}
}

// Edge Events

// EdgeCreated is raised when a causal transition between two visits is recorded
type EdgeCreated struct {
	BaseEvent
	EdgeID         string `json:"edge_id"`
	SourceNodeID   string `json:"source_node_id"`
	TargetNodeID   string `json:"target_node_id"`
	NavigationType string `json:"navigation_type"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(edgeID, sourceNodeID, targetNodeID, navigationType string, timestamp time.Time) EdgeCreated {
	return EdgeCreated{
		BaseEvent: BaseEvent{
			AggregateID: edgeID,
			EventType:   "edge.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		EdgeID:         edgeID,
		SourceNodeID:   sourceNodeID,
		TargetNodeID:   targetNodeID,
		NavigationType: navigationType,
	}
}

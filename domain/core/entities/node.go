package entities

import (
	"time"

	"webtrail/domain/core/valueobjects"
)

// NavigationType describes what caused a navigation
type NavigationType string

const (
	NavigationTypeLink        NavigationType = "link"
	NavigationTypeForm        NavigationType = "form"
	NavigationTypeJS          NavigationType = "js"
	NavigationTypeTyped       NavigationType = "typed"
	NavigationTypeReload      NavigationType = "reload"
	NavigationTypeBackForward NavigationType = "back_forward"
	NavigationTypeGeneric     NavigationType = "navigate"
)

// OpenTarget describes where a navigation landed
type OpenTarget string

const (
	OpenTargetSameTab   OpenTarget = "same_tab"
	OpenTargetNewTab    OpenTarget = "new_tab"
	OpenTargetNewWindow OpenTarget = "new_window"
)

// MetadataSource ranks where a piece of page metadata came from. Higher
// sources are closer to the rendered page and win on conflict.
type MetadataSource int

const (
	SourceNavigationEvent MetadataSource = iota + 1
	SourceBrowserAPI
	SourceContentScript
)

// String returns the wire name of the source
func (s MetadataSource) String() string {
	switch s {
	case SourceNavigationEvent:
		return "navigation_event"
	case SourceBrowserAPI:
		return "browser_api"
	case SourceContentScript:
		return "content_script"
	default:
		return "unknown"
	}
}

// ParseMetadataSource maps a wire name back to a source rank, defaulting
// to the weakest source for unrecognized names
func ParseMetadataSource(s string) MetadataSource {
	switch s {
	case "content_script":
		return SourceContentScript
	case "browser_api":
		return SourceBrowserAPI
	default:
		return SourceNavigationEvent
	}
}

// Metadata contains page enrichment that may arrive after node creation
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	FaviconURL  string `json:"favicon_url,omitempty"`
}

// Node is a tracked page-visit instance. Its identity is derived from
// (tabID, URL), so repeated visits to the same page on the same tab
// address the same node.
type Node struct {
	id             valueobjects.NodeID
	tabID          int
	url            valueobjects.PageURL
	navigationType NavigationType
	openTarget     OpenTarget
	parentID       valueobjects.NodeID
	sessionID      string
	metadata       Metadata
	metadataRank   map[string]MetadataSource
	sourceFrameID  int
	parentFrameID  int
	createdAt      time.Time
}

// NodeCreationOptions carries everything known about a visit at the time
// the browser reports it committed
type NodeCreationOptions struct {
	TabID          int
	URL            string
	NavigationType NavigationType
	OpenTarget     OpenTarget
	ParentID       valueobjects.NodeID
	Metadata       Metadata
	MetadataSource MetadataSource
	SourceFrameID  int
	ParentFrameID  int
	CreatedAt      time.Time
}

// NewNode constructs a node from creation options. The id is derived, not
// assigned: callers that need dedup semantics go through the graph
// aggregate's CreateOrGetNode.
func NewNode(opts NodeCreationOptions, sessionID string) *Node {
	if opts.NavigationType == "" {
		opts.NavigationType = NavigationTypeGeneric
	}
	if opts.OpenTarget == "" {
		opts.OpenTarget = OpenTargetSameTab
	}

	n := &Node{
		id:             valueobjects.NodeIDFor(opts.TabID, opts.URL),
		tabID:          opts.TabID,
		url:            valueobjects.NewPageURL(opts.URL),
		navigationType: opts.NavigationType,
		openTarget:     opts.OpenTarget,
		parentID:       opts.ParentID,
		sessionID:      sessionID,
		metadataRank:   make(map[string]MetadataSource),
		sourceFrameID:  opts.SourceFrameID,
		parentFrameID:  opts.ParentFrameID,
		createdAt:      opts.CreatedAt,
	}

	if opts.MetadataSource == 0 {
		opts.MetadataSource = SourceNavigationEvent
	}
	n.ApplyMetadata(opts.Metadata, opts.MetadataSource)

	return n
}

// ReconstructNode rebuilds a node from persisted data
func ReconstructNode(
	id valueobjects.NodeID,
	tabID int,
	rawURL string,
	navigationType NavigationType,
	openTarget OpenTarget,
	parentID valueobjects.NodeID,
	sessionID string,
	metadata Metadata,
	sourceFrameID, parentFrameID int,
	createdAt time.Time,
) *Node {
	n := &Node{
		id:             id,
		tabID:          tabID,
		url:            valueobjects.NewPageURL(rawURL),
		navigationType: navigationType,
		openTarget:     openTarget,
		parentID:       parentID,
		sessionID:      sessionID,
		metadata:       metadata,
		metadataRank:   make(map[string]MetadataSource),
		sourceFrameID:  sourceFrameID,
		parentFrameID:  parentFrameID,
		createdAt:      createdAt,
	}
	return n
}

// ID returns the node's derived identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// TabID returns the browser tab the visit happened in
func (n *Node) TabID() int {
	return n.tabID
}

// URL returns the visited URL
func (n *Node) URL() valueobjects.PageURL {
	return n.url
}

// NavigationType returns what caused the visit
func (n *Node) NavigationType() NavigationType {
	return n.navigationType
}

// OpenTarget returns where the visit landed
func (n *Node) OpenTarget() OpenTarget {
	return n.openTarget
}

// ParentID returns the id of the node that caused this visit, if known.
// The relation carries no lifetime ownership.
func (n *Node) ParentID() valueobjects.NodeID {
	return n.parentID
}

// SessionID returns the session the node was assigned to at creation
func (n *Node) SessionID() string {
	return n.sessionID
}

// Metadata returns the current page metadata
func (n *Node) Metadata() Metadata {
	return n.metadata
}

// SourceFrameID returns the frame the navigation originated from
func (n *Node) SourceFrameID() int {
	return n.sourceFrameID
}

// ParentFrameID returns the parent frame for sub-frame navigations
func (n *Node) ParentFrameID() int {
	return n.parentFrameID
}

// CreatedAt returns when the visit was first recorded
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// SetParent records the causing node. A parent discovered once is kept;
// later signals cannot rewrite causality.
func (n *Node) SetParent(parentID valueobjects.NodeID) {
	if n.parentID.IsZero() {
		n.parentID = parentID
	}
}

// PromoteNavigationType replaces the generic browser-reported type with a
// more specific one learned from a matched intent. A type that is already
// specific is kept.
func (n *Node) PromoteNavigationType(t NavigationType) {
	if n.navigationType != NavigationTypeGeneric {
		return
	}
	if t != "" && t != NavigationTypeGeneric {
		n.navigationType = t
	}
}

// ApplyMetadata merges metadata field by field. A field is overwritten
// only when the incoming source outranks or equals the source that last
// wrote it, so a stale navigation-event title never clobbers what the
// content script reported. Returns true when anything changed.
func (n *Node) ApplyMetadata(md Metadata, source MetadataSource) bool {
	changed := false

	apply := func(field string, value string, dst *string) {
		if value == "" {
			return
		}
		if rank, ok := n.metadataRank[field]; ok && source < rank {
			return
		}
		if *dst != value {
			*dst = value
			changed = true
		}
		n.metadataRank[field] = source
	}

	apply("title", md.Title, &n.metadata.Title)
	apply("description", md.Description, &n.metadata.Description)
	apply("favicon_url", md.FaviconURL, &n.metadata.FaviconURL)

	return changed
}

package entities

import (
	"fmt"
	"math/rand"
	"time"

	pkgerrors "webtrail/pkg/errors"
)

// NewSessionID builds a human-sortable session identifier from local wall
// clock time plus a 3-digit random suffix. The suffix only disambiguates
// two sessions created within the same second; it carries no entropy
// guarantees.
func NewSessionID(now time.Time, rng *rand.Rand) string {
	return fmt.Sprintf("session-%s-%03d", now.Local().Format("20060102-150405"), rng.Intn(1000))
}

// BrowsingSession is a bounded time window grouping related navigation
// activity. Exactly one session is active at any instant once tracking
// has begun; ended sessions are terminal.
type BrowsingSession struct {
	id          string
	startTime   time.Time
	endTime     *time.Time
	title       string
	description string
	metadata    map[string]interface{}
	nodeIDs     []string
}

// NewBrowsingSession creates an active session
func NewBrowsingSession(id string, start time.Time, title, description string, metadata map[string]interface{}) *BrowsingSession {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &BrowsingSession{
		id:          id,
		startTime:   start,
		title:       title,
		description: description,
		metadata:    metadata,
	}
}

// ReconstructSession rebuilds a session from persisted data
func ReconstructSession(id string, start time.Time, end *time.Time, title, description string, metadata map[string]interface{}, nodeIDs []string) *BrowsingSession {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &BrowsingSession{
		id:          id,
		startTime:   start,
		endTime:     end,
		title:       title,
		description: description,
		metadata:    metadata,
		nodeIDs:     nodeIDs,
	}
}

// ID returns the session identifier
func (s *BrowsingSession) ID() string {
	return s.id
}

// StartTime returns when the session began
func (s *BrowsingSession) StartTime() time.Time {
	return s.startTime
}

// EndTime returns when the session ended, or nil while active
func (s *BrowsingSession) EndTime() *time.Time {
	return s.endTime
}

// IsActive reports whether the session is still open
func (s *BrowsingSession) IsActive() bool {
	return s.endTime == nil
}

// Title returns the session title
func (s *BrowsingSession) Title() string {
	return s.title
}

// Description returns the session description
func (s *BrowsingSession) Description() string {
	return s.description
}

// Metadata returns a copy of the session metadata bag
func (s *BrowsingSession) Metadata() map[string]interface{} {
	md := make(map[string]interface{}, len(s.metadata))
	for k, v := range s.metadata {
		md[k] = v
	}
	return md
}

// NodeIDs returns a copy of the ids of nodes assigned to this session
func (s *BrowsingSession) NodeIDs() []string {
	ids := make([]string, len(s.nodeIDs))
	copy(ids, s.nodeIDs)
	return ids
}

// NodeCount returns how many nodes belong to this session
func (s *BrowsingSession) NodeCount() int {
	return len(s.nodeIDs)
}

// AddNode assigns a node to this session. Membership is decided at node
// creation time and never revisited.
func (s *BrowsingSession) AddNode(nodeID string) error {
	if !s.IsActive() {
		return pkgerrors.NewConflictError("cannot add node to an ended session")
	}
	s.nodeIDs = append(s.nodeIDs, nodeID)
	return nil
}

// End closes the session. Ending is terminal: a second End is a conflict.
func (s *BrowsingSession) End(now time.Time) error {
	if !s.IsActive() {
		return pkgerrors.NewConflictError("session already ended")
	}
	end := now
	s.endTime = &end
	return nil
}

// Rename updates the title and description of an active session
func (s *BrowsingSession) Rename(title, description string) error {
	if !s.IsActive() {
		return pkgerrors.NewValidationError("cannot rename an ended session")
	}
	if title != "" {
		s.title = title
	}
	if description != "" {
		s.description = description
	}
	return nil
}

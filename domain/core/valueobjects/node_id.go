package valueobjects

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// NodeID is a value object identifying a page-visit node. Unlike a random
// UUID it is a pure function of (tabID, URL): recording the same URL on
// the same tab always addresses the same node within a process lifetime,
// which is what lets late-arriving signals find their node.
type NodeID struct {
	value string
}

// NodeIDFor derives the deterministic node identifier for a visit.
// The format is "{tabID}-{domain}-{hash}" where hash is the base-36
// encoding of a 32-bit rolling hash of the normalized URL. The hash is
// deliberately weak; persisted graphs depend on this exact format, so it
// must not be swapped for a stronger scheme without a data migration.
func NodeIDFor(tabID int, rawURL string) NodeID {
	u := NewPageURL(rawURL)
	return NodeID{value: fmt.Sprintf("%d-%s-%s", tabID, u.Domain(), hashBase36(u.Normalized()))}
}

// hashBase36 computes h = h*31 + codepoint over the string, wrapped to
// signed 32 bits, and base-36 encodes the absolute value.
func hashBase36(s string) string {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("NodeID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// EdgeIDFor derives an edge identifier from its endpoints and the
// millisecond timestamp of the transition. Two transitions between the
// same pages in the same millisecond collide; that rarity is accepted in
// favor of id simplicity.
func EdgeIDFor(source, target NodeID, at time.Time) string {
	return fmt.Sprintf("edge-%s-%s-%d", source.value, target.value, at.UnixMilli())
}

package valueobjects_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtrail/domain/core/valueobjects"
)

func TestNodeIDFor_Deterministic(t *testing.T) {
	a := valueobjects.NodeIDFor(7, "https://example.com/page")
	b := valueobjects.NodeIDFor(7, "https://example.com/page")

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.String(), b.String())
}

func TestNodeIDFor_Format(t *testing.T) {
	id := valueobjects.NodeIDFor(42, "https://www.example.com/docs/guide")

	assert.Regexp(t, regexp.MustCompile(`^42-example\.com-[0-9a-z]+$`), id.String())
}

func TestNodeIDFor_NormalizedVariantsCollapse(t *testing.T) {
	base := valueobjects.NodeIDFor(3, "https://example.com/docs")

	tests := []struct {
		name string
		url  string
	}{
		{"fragment", "https://example.com/docs#section"},
		{"trailing slash", "https://example.com/docs/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, base.Equals(valueobjects.NodeIDFor(3, tt.url)))
		})
	}
}

func TestNodeIDFor_DistinguishingInputs(t *testing.T) {
	base := valueobjects.NodeIDFor(3, "https://example.com/docs")

	assert.False(t, base.Equals(valueobjects.NodeIDFor(4, "https://example.com/docs")),
		"different tab is a different visit")
	assert.False(t, base.Equals(valueobjects.NodeIDFor(3, "https://example.com/docs?v=2")),
		"query parameters are part of identity")
}

func TestNodeIDFor_MalformedURL(t *testing.T) {
	id := valueobjects.NodeIDFor(1, "https://example.com/%zz")

	assert.Regexp(t, regexp.MustCompile(`^1-unknown-[0-9a-z]+$`), id.String())
}

func TestNewNodeIDFromString(t *testing.T) {
	id, err := valueobjects.NewNodeIDFromString("7-example.com-abc123")
	require.NoError(t, err)
	assert.Equal(t, "7-example.com-abc123", id.String())
	assert.False(t, id.IsZero())

	_, err = valueobjects.NewNodeIDFromString("")
	assert.Error(t, err)
	assert.True(t, valueobjects.NodeID{}.IsZero())
}

func TestNodeID_JSONRoundTrip(t *testing.T) {
	id, err := valueobjects.NewNodeIDFromString("7-example.com-abc123")
	require.NoError(t, err)

	data, err := id.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"7-example.com-abc123"`, string(data))

	var decoded valueobjects.NodeID
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.True(t, id.Equals(decoded))
}

func TestEdgeIDFor(t *testing.T) {
	source, err := valueobjects.NewNodeIDFromString("1-a.com-x1")
	require.NoError(t, err)
	target, err := valueobjects.NewNodeIDFromString("1-b.com-y2")
	require.NoError(t, err)

	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "edge-1-a.com-x1-1-b.com-y2-1700000000123", valueobjects.EdgeIDFor(source, target, at))

	later := valueobjects.EdgeIDFor(source, target, at.Add(time.Millisecond))
	assert.NotEqual(t, valueobjects.EdgeIDFor(source, target, at), later,
		"same endpoints in a later millisecond is a distinct edge")
}

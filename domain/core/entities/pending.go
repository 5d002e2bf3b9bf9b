package entities

import (
	"time"

	"github.com/google/uuid"

	"webtrail/domain/core/valueobjects"
)

// PendingNavigation is an intent record: a user action observed in a page
// context that is expected to produce a committed navigation. It lives in
// the ledger until a matching navigation consumes it or it expires.
type PendingNavigation struct {
	ID           string
	Type         NavigationType
	SourceNodeID valueobjects.NodeID
	SourceURL    string
	TargetURL    string
	Payload      map[string]interface{}
	SourceTabID  int
	TargetTabID  int
	IsNewTab     bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// PendingNavigationOptions carries the observed intent details
type PendingNavigationOptions struct {
	Type         NavigationType
	SourceNodeID valueobjects.NodeID
	SourceURL    string
	TargetURL    string
	Payload      map[string]interface{}
	SourceTabID  int
	TargetTabID  int
	IsNewTab     bool
	CreatedAt    time.Time
}

// NewPendingNavigation constructs an intent. Expiry is assigned by the
// ledger when the intent is recorded.
func NewPendingNavigation(opts PendingNavigationOptions) *PendingNavigation {
	if opts.Type == "" {
		opts.Type = NavigationTypeGeneric
	}
	return &PendingNavigation{
		ID:           uuid.New().String(),
		Type:         opts.Type,
		SourceNodeID: opts.SourceNodeID,
		SourceURL:    opts.SourceURL,
		TargetURL:    opts.TargetURL,
		Payload:      opts.Payload,
		SourceTabID:  opts.SourceTabID,
		TargetTabID:  opts.TargetTabID,
		IsNewTab:     opts.IsNewTab,
		CreatedAt:    opts.CreatedAt,
	}
}

// IsExpired reports whether the intent's validity window has passed
func (p *PendingNavigation) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// MatchesURL reports whether a committed URL satisfies this intent,
// using normalized-URL equality
func (p *PendingNavigation) MatchesURL(committed valueobjects.PageURL) bool {
	return valueobjects.NewPageURL(p.TargetURL).Equals(committed)
}

// MatchesTab reports whether the tab a navigation committed on is a
// plausible destination for this intent. Same-tab intents must commit on
// the source tab; new-tab intents commit on any tab (the target tab id is
// unknown until the browser creates it) unless one was recorded.
func (p *PendingNavigation) MatchesTab(tabID int) bool {
	if p.TargetTabID != 0 {
		return p.TargetTabID == tabID
	}
	if p.IsNewTab {
		return true
	}
	return p.SourceTabID == tabID
}

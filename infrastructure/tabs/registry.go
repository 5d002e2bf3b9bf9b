package tabs

import (
	"sort"
	"sync"
	"time"

	"webtrail/application/ports"
)

// Registry is the in-memory tab directory, tracking which browser tabs
// the service has seen and what each one currently shows. The extension
// reports tabs implicitly through navigation signals, so a tab absent
// from the registry is one the service has never observed.
type Registry struct {
	mu   sync.RWMutex
	tabs map[int]tabState
}

type tabState struct {
	URL      string
	LastSeen time.Time
}

// NewRegistry creates an empty tab registry
func NewRegistry() *Registry {
	return &Registry{
		tabs: make(map[int]tabState),
	}
}

// RegisterTab records that a tab exists and what it currently shows
func (r *Registry) RegisterTab(tabID int, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[tabID] = tabState{URL: url, LastSeen: time.Now()}
}

// IsKnownTab reports whether the tab has been seen before
func (r *Registry) IsKnownTab(tabID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tabs[tabID]
	return ok
}

// ActiveTabs lists the tab ids seen so far, ascending
func (r *Registry) ActiveTabs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.tabs))
	for id := range r.tabs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CurrentURL returns what a tab last showed
func (r *Registry) CurrentURL(tabID int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.tabs[tabID]
	return state.URL, ok
}

// RemoveTab forgets a closed tab
func (r *Registry) RemoveTab(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tabID)
}

var _ ports.TabDirectory = (*Registry)(nil)

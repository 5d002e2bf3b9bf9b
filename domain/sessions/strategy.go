package sessions

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"webtrail/domain/core/entities"
)

// Strategy decides where one browsing session ends and the next begins.
// Implementations must be pure decision logic; registering side effects
// belongs to the Manager.
type Strategy interface {
	// Name identifies the strategy in the factory registry
	Name() string

	// ShouldCreateNewSession is consulted on every activity tick
	ShouldCreateNewSession(lastActivity, now time.Time, current *entities.BrowsingSession) bool

	// CreateSession builds a fresh active session for the given instant
	CreateSession(now time.Time) *entities.BrowsingSession
}

// StrategyFactory holds the registry of boundary policies and the name of
// the one currently in effect. The factory is never without a usable
// strategy: unknown names fall back to the daily policy.
type StrategyFactory struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	activeName string
	fallback   Strategy
	logger     *zap.Logger
}

// NewStrategyFactory creates a factory with the daily strategy registered
// and active
func NewStrategyFactory(idleThreshold time.Duration, logger *zap.Logger) *StrategyFactory {
	daily := NewDailyStrategy(idleThreshold)
	f := &StrategyFactory{
		strategies: make(map[string]Strategy),
		fallback:   daily,
		logger:     logger,
	}
	f.Register(daily)
	f.activeName = daily.Name()
	return f
}

// Register adds a strategy to the registry, replacing any previous
// registration under the same name
func (f *StrategyFactory) Register(s Strategy) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strategies[s.Name()] = s
}

// Use switches the active strategy. Switching to the already-active name
// is a no-op; an unknown name falls back to the daily strategy.
func (f *StrategyFactory) Use(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == f.activeName {
		return
	}
	if _, ok := f.strategies[name]; !ok {
		f.logger.Warn("unknown session strategy, falling back to daily",
			zap.String("requested", name),
		)
		name = f.fallback.Name()
	}
	f.activeName = name
}

// Active returns the strategy currently in effect, falling back to the
// daily strategy if the registry has been emptied
func (f *StrategyFactory) Active() Strategy {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if s, ok := f.strategies[f.activeName]; ok {
		return s
	}
	return f.fallback
}

// ActiveName returns the name of the strategy currently in effect
func (f *StrategyFactory) ActiveName() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.activeName
}

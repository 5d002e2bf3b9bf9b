package sessions

import (
	"math/rand"
	"time"

	"webtrail/domain/core/entities"
	"webtrail/pkg/utils"
)

// StrategyNameDaily is the registry name of the daily boundary policy
const StrategyNameDaily = "daily"

// DailyStrategy rolls a session over when the local calendar day has
// changed AND the user has been idle long enough. A midnight boundary
// alone never fragments a session the user is still working in.
type DailyStrategy struct {
	idleThreshold time.Duration
	rng           *rand.Rand
}

// NewDailyStrategy creates a daily strategy with the given idle threshold
func NewDailyStrategy(idleThreshold time.Duration) *DailyStrategy {
	return &DailyStrategy{
		idleThreshold: idleThreshold,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name implements Strategy
func (s *DailyStrategy) Name() string {
	return StrategyNameDaily
}

// ShouldCreateNewSession implements Strategy
func (s *DailyStrategy) ShouldCreateNewSession(lastActivity, now time.Time, current *entities.BrowsingSession) bool {
	if current == nil {
		return true
	}

	sameDay := utils.WorkDayKey(current.StartTime()) == utils.WorkDayKey(now)
	if sameDay {
		return false
	}

	return now.Sub(lastActivity) > s.idleThreshold
}

// CreateSession implements Strategy
func (s *DailyStrategy) CreateSession(now time.Time) *entities.BrowsingSession {
	local := now.Local()
	return entities.NewBrowsingSession(
		entities.NewSessionID(now, s.rng),
		now,
		"Browsing "+local.Format("Jan 2, 2006"),
		"Session started at "+local.Format("15:04"),
		map[string]interface{}{"strategy": StrategyNameDaily},
	)
}

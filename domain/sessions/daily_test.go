package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtrail/domain/sessions"
)

func TestDailyStrategy_ShouldCreateNewSession(t *testing.T) {
	idle := 30 * time.Minute
	strategy := sessions.NewDailyStrategy(idle)

	day1Evening := time.Date(2026, 8, 24, 23, 0, 0, 0, time.Local)
	current := strategy.CreateSession(day1Evening)

	tests := []struct {
		name         string
		lastActivity time.Time
		now          time.Time
		want         bool
	}{
		{
			name:         "same day continues",
			lastActivity: day1Evening.Add(10 * time.Minute),
			now:          day1Evening.Add(20 * time.Minute),
			want:         false,
		},
		{
			name:         "midnight crossing alone does not fragment active work",
			lastActivity: time.Date(2026, 8, 24, 23, 50, 0, 0, time.Local),
			now:          time.Date(2026, 8, 25, 0, 10, 0, 0, time.Local),
			want:         false,
		},
		{
			name:         "new day after an overnight idle gap rolls over",
			lastActivity: time.Date(2026, 8, 25, 0, 30, 0, 0, time.Local),
			now:          time.Date(2026, 8, 25, 5, 30, 0, 0, time.Local),
			want:         true,
		},
		{
			name:         "long idle gap within the same day continues",
			lastActivity: time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local),
			now:          day1Evening,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strategy.ShouldCreateNewSession(tt.lastActivity, tt.now, current)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDailyStrategy_NoCurrentSessionAlwaysCreates(t *testing.T) {
	strategy := sessions.NewDailyStrategy(30 * time.Minute)
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)

	assert.True(t, strategy.ShouldCreateNewSession(time.Time{}, now, nil))
}

func TestDailyStrategy_CreateSession(t *testing.T) {
	strategy := sessions.NewDailyStrategy(30 * time.Minute)
	now := time.Date(2026, 8, 25, 9, 30, 0, 0, time.Local)

	session := strategy.CreateSession(now)
	require.NotNil(t, session)

	assert.True(t, session.IsActive())
	assert.Equal(t, now, session.StartTime())
	assert.Equal(t, "Browsing Aug 25, 2026", session.Title())
	assert.Regexp(t, `^session-20260825-093000-\d{3}$`, session.ID())
	assert.Equal(t, sessions.StrategyNameDaily, session.Metadata()["strategy"])
}

func TestDailyStrategy_Name(t *testing.T) {
	assert.Equal(t, sessions.StrategyNameDaily, sessions.NewDailyStrategy(time.Minute).Name())
}

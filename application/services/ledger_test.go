package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webtrail/application/services"
	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
)

func newIntent(t *testing.T, opts entities.PendingNavigationOptions) *entities.PendingNavigation {
	t.Helper()
	if opts.Type == "" {
		opts.Type = entities.NavigationTypeLink
	}
	return entities.NewPendingNavigation(opts)
}

func TestLedger_ConsumeMatchesWithinTTL(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 7,
		SourceURL:   "https://a.com/x",
		TargetURL:   "https://b.com/y",
		CreatedAt:   t0,
	}), t0)

	got := ledger.Consume(7, valueobjects.NewPageURL("https://b.com/y"), t0.Add(29*time.Second))
	require.NotNil(t, got)
	assert.Equal(t, "https://b.com/y", got.TargetURL)
	assert.Equal(t, 0, ledger.Len(), "a consumed intent is removed")
}

func TestLedger_ExpiredIntentNeverMatches(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 7,
		TargetURL:   "https://b.com/y",
		CreatedAt:   t0,
	}), t0)

	got := ledger.Consume(7, valueobjects.NewPageURL("https://b.com/y"), t0.Add(31*time.Second))
	assert.Nil(t, got)
	assert.Equal(t, 0, ledger.Len(), "expired entries are swept")
}

func TestLedger_MostRecentIntentWins(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	older := newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 7,
		TargetURL:   "https://b.com/y",
		CreatedAt:   t0,
	})
	newer := newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 7,
		TargetURL:   "https://b.com/y",
		CreatedAt:   t0.Add(2 * time.Second),
	})
	ledger.Record(older, t0)
	ledger.Record(newer, t0.Add(2*time.Second))

	got := ledger.Consume(7, valueobjects.NewPageURL("https://b.com/y"), t0.Add(5*time.Second))
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, 1, ledger.Len(), "the older intent stays recorded")

	second := ledger.Consume(7, valueobjects.NewPageURL("https://b.com/y"), t0.Add(6*time.Second))
	require.NotNil(t, second)
	assert.Equal(t, older.ID, second.ID)
}

func TestLedger_URLNormalizationInKeying(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 7,
		TargetURL:   "https://b.com/y#frag",
		CreatedAt:   t0,
	}), t0)

	got := ledger.Consume(7, valueobjects.NewPageURL("https://b.com/y/"), t0.Add(time.Second))
	assert.NotNil(t, got, "fragment and trailing slash variants match")
}

func TestLedger_TabMatching(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		opts        entities.PendingNavigationOptions
		commitTab   int
		shouldMatch bool
	}{
		{
			name:        "same tab intent commits on source tab",
			opts:        entities.PendingNavigationOptions{SourceTabID: 7, TargetURL: "https://b.com"},
			commitTab:   7,
			shouldMatch: true,
		},
		{
			name:        "same tab intent rejects another tab",
			opts:        entities.PendingNavigationOptions{SourceTabID: 7, TargetURL: "https://b.com"},
			commitTab:   8,
			shouldMatch: false,
		},
		{
			name:        "new tab intent commits on any tab",
			opts:        entities.PendingNavigationOptions{SourceTabID: 7, IsNewTab: true, TargetURL: "https://b.com"},
			commitTab:   99,
			shouldMatch: true,
		},
		{
			name:        "explicit target tab binds the match",
			opts:        entities.PendingNavigationOptions{SourceTabID: 7, TargetTabID: 12, IsNewTab: true, TargetURL: "https://b.com"},
			commitTab:   13,
			shouldMatch: false,
		},
		{
			name:        "explicit target tab matches itself",
			opts:        entities.PendingNavigationOptions{SourceTabID: 7, TargetTabID: 12, IsNewTab: true, TargetURL: "https://b.com"},
			commitTab:   12,
			shouldMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
			tt.opts.CreatedAt = t0
			ledger.Record(newIntent(t, tt.opts), t0)

			got := ledger.Consume(tt.commitTab, valueobjects.NewPageURL("https://b.com"), t0.Add(time.Second))
			if tt.shouldMatch {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestLedger_CapKeepsNewestPerKey(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 2, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	var intents []*entities.PendingNavigation
	for i := 0; i < 3; i++ {
		intent := newIntent(t, entities.PendingNavigationOptions{
			SourceTabID: 7,
			TargetURL:   "https://b.com",
			CreatedAt:   t0.Add(time.Duration(i) * time.Second),
		})
		intents = append(intents, intent)
		ledger.Record(intent, intent.CreatedAt)
	}

	assert.Equal(t, 2, ledger.Len())

	first := ledger.Consume(7, valueobjects.NewPageURL("https://b.com"), t0.Add(5*time.Second))
	require.NotNil(t, first)
	assert.Equal(t, intents[2].ID, first.ID)

	second := ledger.Consume(7, valueobjects.NewPageURL("https://b.com"), t0.Add(6*time.Second))
	require.NotNil(t, second)
	assert.Equal(t, intents[1].ID, second.ID, "the oldest intent was dropped by the cap")
}

func TestLedger_RecordReportsSweptCount(t *testing.T) {
	ledger := services.NewPendingLedger(30*time.Second, 16, zap.NewNop())
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 1,
		TargetURL:   "https://a.com",
		CreatedAt:   t0,
	}), t0)
	ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 2,
		TargetURL:   "https://b.com",
		CreatedAt:   t0,
	}), t0)

	swept := ledger.Record(newIntent(t, entities.PendingNavigationOptions{
		SourceTabID: 3,
		TargetURL:   "https://c.com",
		CreatedAt:   t0.Add(time.Minute),
	}), t0.Add(time.Minute))

	assert.Equal(t, 2, swept)
	assert.Equal(t, 1, ledger.Len())
}

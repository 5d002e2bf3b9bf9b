package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
)

// PendingLedger is the short-lived store of navigation intents awaiting
// confirmation by a committed navigation. Entries are keyed by
// (sourceTabID, normalized target URL) and kept in insertion order; when
// several intents are eligible for one committed navigation the most
// recently created one wins, since it represents the latest user intent.
//
// The ledger is not safe for concurrent use on its own: all access runs
// inside the Tracker's serialized event-processing path.
type PendingLedger struct {
	ttl       time.Duration
	maxPerKey int
	entries   map[string][]*entities.PendingNavigation
	logger    *zap.Logger
}

// NewPendingLedger creates an empty ledger
func NewPendingLedger(ttl time.Duration, maxPerKey int, logger *zap.Logger) *PendingLedger {
	return &PendingLedger{
		ttl:       ttl,
		maxPerKey: maxPerKey,
		entries:   make(map[string][]*entities.PendingNavigation),
		logger:    logger,
	}
}

func ledgerKey(sourceTabID int, target valueobjects.PageURL) string {
	return fmt.Sprintf("%d|%s", sourceTabID, target.Normalized())
}

// Record stores an intent with its expiry stamped from now. Expired
// entries across the whole ledger are swept as a side effect, so memory
// stays bounded without a dedicated timer. Returns the number of entries
// swept.
func (l *PendingLedger) Record(intent *entities.PendingNavigation, now time.Time) int {
	swept := l.sweep(now)

	intent.ExpiresAt = now.Add(l.ttl)
	key := ledgerKey(intent.SourceTabID, valueobjects.NewPageURL(intent.TargetURL))

	bucket := append(l.entries[key], intent)
	if l.maxPerKey > 0 && len(bucket) > l.maxPerKey {
		// Oldest intents are the least likely to still be meant
		bucket = bucket[len(bucket)-l.maxPerKey:]
	}
	l.entries[key] = bucket

	return swept
}

// Consume finds and removes the authoritative intent for a committed
// navigation: the most recently created unexpired entry whose target URL
// normalizes to the committed URL and whose tab expectation matches.
// Returns nil when nothing qualifies; the caller then falls back to a
// parentless root node.
func (l *PendingLedger) Consume(tabID int, committed valueobjects.PageURL, now time.Time) *entities.PendingNavigation {
	l.sweep(now)

	var (
		best    *entities.PendingNavigation
		bestKey string
		bestIdx int
	)

	for key, bucket := range l.entries {
		for i, intent := range bucket {
			if intent.IsExpired(now) {
				continue
			}
			if !intent.MatchesURL(committed) || !intent.MatchesTab(tabID) {
				continue
			}
			if best == nil || intent.CreatedAt.After(best.CreatedAt) {
				best, bestKey, bestIdx = intent, key, i
			}
		}
	}

	if best == nil {
		return nil
	}

	bucket := l.entries[bestKey]
	l.entries[bestKey] = append(bucket[:bestIdx], bucket[bestIdx+1:]...)
	if len(l.entries[bestKey]) == 0 {
		delete(l.entries, bestKey)
	}

	return best
}

// Len returns the number of live entries
func (l *PendingLedger) Len() int {
	n := 0
	for _, bucket := range l.entries {
		n += len(bucket)
	}
	return n
}

// sweep drops every expired entry and returns how many were dropped
func (l *PendingLedger) sweep(now time.Time) int {
	swept := 0
	for key, bucket := range l.entries {
		kept := bucket[:0]
		for _, intent := range bucket {
			if intent.IsExpired(now) {
				swept++
				continue
			}
			kept = append(kept, intent)
		}
		if len(kept) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = kept
		}
	}

	if swept > 0 {
		l.logger.Debug("swept expired navigation intents", zap.Int("count", swept))
	}
	return swept
}

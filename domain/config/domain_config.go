package config

import "time"

// DomainConfig holds the configurable business rules of the tracking core
type DomainConfig struct {
	// Pending-navigation ledger
	PendingNavigationTTL time.Duration
	MaxPendingPerKey     int

	// Session segmentation
	SessionIdleThreshold time.Duration
	StrategyName         string

	// Graph constraints
	MaxNodesPerSession int
	AllowSelfEdges     bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		PendingNavigationTTL: 30 * time.Second,
		MaxPendingPerKey:     16,
		SessionIdleThreshold: 30 * time.Minute,
		StrategyName:         "daily",
		MaxNodesPerSession:   10000,
		AllowSelfEdges:       true,
	}
}

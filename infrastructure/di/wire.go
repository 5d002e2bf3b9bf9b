//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"webtrail/application/commands/bus"
	"webtrail/application/ports"
	querybus "webtrail/application/queries/bus"
	"webtrail/application/services"
	"webtrail/domain/core/aggregates"
	"webtrail/domain/sessions"
	"webtrail/infrastructure/config"
	"webtrail/infrastructure/messaging/membus"
	"webtrail/infrastructure/tabs"
	"webtrail/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Graph          *aggregates.Graph
	Ledger         *services.PendingLedger
	Tracker        *services.Tracker
	SessionManager *sessions.Manager
	SessionBus     *membus.Bus
	TabRegistry    *tabs.Registry
	SessionStore   ports.SessionStore
	SnapshotStore  ports.SnapshotStore
	EventPublisher ports.EventPublisher
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Cache          *InMemoryCache
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideSessionBus,
	ProvideStrategyFactory,
	ProvideSessionManager,
	ProvideTabRegistry,
	ProvidePendingLedger,
	ProvideGraph,
	ProvideEventPublisher,
	ProvideSessionStore,
	ProvideSnapshotStore,
	ProvideTracker,
	ProvideCommandBus,
	ProvideQueryBus,
	NewInMemoryCache,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}

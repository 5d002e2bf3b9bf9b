//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"go.uber.org/zap"

	"webtrail/application/commands/bus"
	"webtrail/application/ports"
	querybus "webtrail/application/queries/bus"
	"webtrail/application/services"
	"webtrail/domain/core/aggregates"
	"webtrail/domain/events"
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

// InitializeContainer creates a fully wired container, restoring
// persisted sessions and the graph snapshot so a restart does not lose
// tracked history.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	metrics := ProvideMetrics(cloudWatchClient, cfg, logger)
	tracer := ProvideTracer(cfg)

	sessionBus := ProvideSessionBus(logger)
	factory := ProvideStrategyFactory(cfg, logger)
	manager := ProvideSessionManager(factory, sessionBus, logger)
	registry := ProvideTabRegistry()
	ledger := ProvidePendingLedger(cfg, logger)
	publisher := ProvideEventPublisher(eventBridgeClient, cfg, tracer, logger)
	sessionStore := ProvideSessionStore(dynamoClient, cfg, tracer, logger)
	snapshotStore := ProvideSnapshotStore(dynamoClient, cfg, tracer, logger)

	// Session lifecycle counters ride on the bus like any other observer
	sessionBus.Subscribe(events.SessionCreated, func(e events.SessionEvent) error {
		metrics.Increment(observability.MetricSessionsCreated)
		return nil
	})
	sessionBus.Subscribe(events.SessionEnded, func(e events.SessionEvent) error {
		metrics.Increment(observability.MetricSessionsEnded)
		return nil
	})

	wireSessionPersistence(sessionBus, manager, sessionStore, logger)

	graph := restoreGraph(ctx, snapshotStore, logger)
	restoreSessions(ctx, sessionStore, manager, logger)

	tracker := ProvideTracker(cfg, graph, ledger, manager, registry, publisher, metrics, logger)
	cache := NewInMemoryCache()

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Graph:          graph,
		Ledger:         ledger,
		Tracker:        tracker,
		SessionManager: manager,
		SessionBus:     sessionBus,
		TabRegistry:    registry,
		SessionStore:   sessionStore,
		SnapshotStore:  snapshotStore,
		EventPublisher: publisher,
		CommandBus:     ProvideCommandBus(tracker, manager, logger),
		QueryBus:       ProvideQueryBus(tracker, manager, cache, logger),
		Cache:          cache,
		Metrics:        metrics,
		Tracer:         tracer,
	}, nil
}

// wireSessionPersistence saves a session whenever its lifecycle changes,
// and removes it from the store on deletion. Writes run off the delivery
// goroutine: the manager publishes while holding its lock, so reading the
// session back synchronously would deadlock.
func wireSessionPersistence(sessionBus ports.SessionBus, manager *sessions.Manager, store ports.SessionStore, logger *zap.Logger) {
	save := func(e events.SessionEvent) error {
		go func() {
			session, err := manager.Get(e.SessionID)
			if err != nil {
				return
			}
			if err := store.SaveSession(context.Background(), session); err != nil {
				logger.Warn("failed to persist session",
					zap.String("session_id", e.SessionID),
					zap.Error(err),
				)
			}
		}()
		return nil
	}

	for _, eventType := range []events.SessionEventType{
		events.SessionCreated,
		events.SessionUpdated,
		events.SessionEnded,
	} {
		sessionBus.Subscribe(eventType, save)
	}

	sessionBus.Subscribe(events.SessionDeleted, func(e events.SessionEvent) error {
		go func() {
			if err := store.DeleteSession(context.Background(), e.SessionID); err != nil {
				logger.Warn("failed to delete persisted session",
					zap.String("session_id", e.SessionID),
					zap.Error(err),
				)
			}
		}()
		return nil
	})
}

// restoreGraph loads the last snapshot, degrading to an empty graph when
// persistence is unavailable
func restoreGraph(ctx context.Context, store ports.SnapshotStore, logger *zap.Logger) *aggregates.Graph {
	snap, err := store.LoadGraphSnapshot(ctx)
	if err != nil {
		logger.Warn("failed to load graph snapshot, starting empty", zap.Error(err))
		return aggregates.NewGraph()
	}
	if snap == nil {
		return aggregates.NewGraph()
	}

	graph := aggregates.RestoreGraph(snap)
	logger.Info("graph restored from snapshot",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
	return graph
}

// restoreSessions loads persisted sessions into the manager
func restoreSessions(ctx context.Context, store ports.SessionStore, manager *sessions.Manager, logger *zap.Logger) {
	restored, err := store.LoadSessions(ctx)
	if err != nil {
		logger.Warn("failed to load sessions, starting empty", zap.Error(err))
		return
	}
	if len(restored) == 0 {
		return
	}
	manager.Restore(restored)
	logger.Info("sessions restored", zap.Int("count", len(restored)))
}

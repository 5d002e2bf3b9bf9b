package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"webtrail/application/commands"
	"webtrail/application/commands/bus"
	"webtrail/application/ports"
	"webtrail/application/queries"
	querybus "webtrail/application/queries/bus"
	"webtrail/application/services"
	"webtrail/domain/core/aggregates"
	"webtrail/domain/sessions"
	"webtrail/infrastructure/config"
	"webtrail/infrastructure/messaging/eventbridge"
	"webtrail/infrastructure/messaging/membus"
	"webtrail/infrastructure/persistence/dynamodb"
	"webtrail/infrastructure/tabs"
	"webtrail/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates a metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("WebTrail/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger, cfg.EnableMetrics)
}

// ProvideTracer creates a tracing instance
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("webtrail", cfg.EnableTracing)
}

// ProvideSessionBus creates the in-process session event bus
func ProvideSessionBus(logger *zap.Logger) *membus.Bus {
	return membus.NewBus(logger, nil)
}

// ProvideStrategyFactory creates the segmentation strategy registry with
// the configured strategy active
func ProvideStrategyFactory(cfg *config.Config, logger *zap.Logger) *sessions.StrategyFactory {
	factory := sessions.NewStrategyFactory(cfg.SessionIdleThreshold, logger)
	factory.Use(cfg.SegmentationStrategy)
	return factory
}

// ProvideSessionManager creates the session manager wired to the bus
func ProvideSessionManager(factory *sessions.StrategyFactory, sessionBus *membus.Bus, logger *zap.Logger) *sessions.Manager {
	return sessions.NewManager(factory, sessionBus, logger)
}

// ProvideTabRegistry creates the in-memory tab directory
func ProvideTabRegistry() *tabs.Registry {
	return tabs.NewRegistry()
}

// ProvidePendingLedger creates the pending-navigation ledger
func ProvidePendingLedger(cfg *config.Config, logger *zap.Logger) *services.PendingLedger {
	return services.NewPendingLedger(cfg.PendingNavigationTTL, cfg.MaxPendingPerKey, logger)
}

// ProvideGraph creates an empty navigation graph. Snapshot restoration
// happens during container initialization.
func ProvideGraph() *aggregates.Graph {
	return aggregates.NewGraph()
}

// ProvideEventPublisher creates the external event publisher, or a no-op
// when no event bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		logger.Info("no event bus configured, domain events stay in-process")
		return eventbridge.NopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, tracer, logger)
}

// ProvideSessionStore creates the DynamoDB session store
func ProvideSessionStore(client *awsdynamodb.Client, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.SessionStore {
	return dynamodb.NewSessionStore(client, cfg.DynamoDBTable, tracer, logger)
}

// ProvideSnapshotStore creates the DynamoDB snapshot store
func ProvideSnapshotStore(client *awsdynamodb.Client, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.SnapshotStore {
	return dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, tracer, logger)
}

// ProvideTracker creates the tracking service
func ProvideTracker(
	cfg *config.Config,
	graph *aggregates.Graph,
	ledger *services.PendingLedger,
	manager *sessions.Manager,
	registry *tabs.Registry,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.Tracker {
	return services.NewTracker(cfg.Domain(), graph, ledger, manager, registry, publisher, metrics, nil, logger)
}

// commandHandlerAdapter adapts typed command handlers to the generic interface
type commandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *commandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	tracker *services.Tracker,
	manager *sessions.Manager,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	navHandler := commands.NewRecordNavigationHandler(tracker, logger)
	commandBus.Register(commands.RecordNavigationCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			navCmd, ok := cmd.(commands.RecordNavigationCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return navHandler.Handle(ctx, navCmd)
		},
	})

	intentHandler := commands.NewRecordIntentHandler(tracker, logger)
	commandBus.Register(commands.RecordIntentCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			intentCmd, ok := cmd.(commands.RecordIntentCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return intentHandler.Handle(ctx, intentCmd)
		},
	})

	metadataHandler := commands.NewUpdateNodeMetadataHandler(tracker, logger)
	commandBus.Register(commands.UpdateNodeMetadataCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			mdCmd, ok := cmd.(commands.UpdateNodeMetadataCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, metadataHandler.Handle(ctx, mdCmd)
		},
	})

	endHandler := commands.NewEndSessionHandler(tracker, logger)
	commandBus.Register(commands.EndSessionCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			endCmd, ok := cmd.(commands.EndSessionCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, endHandler.Handle(ctx, endCmd)
		},
	})

	renameHandler := commands.NewRenameSessionHandler(manager, logger)
	commandBus.Register(commands.RenameSessionCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			renameCmd, ok := cmd.(commands.RenameSessionCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, renameHandler.Handle(ctx, renameCmd)
		},
	})

	deleteHandler := commands.NewDeleteSessionHandler(manager, logger)
	commandBus.Register(commands.DeleteSessionCommand{}, &commandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			delCmd, ok := cmd.(commands.DeleteSessionCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return nil, deleteHandler.Handle(ctx, delCmd)
		},
	})

	return commandBus
}

// queryHandlerAdapter adapts typed query handlers to the generic interface
type queryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *queryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	tracker *services.Tracker,
	manager *sessions.Manager,
	cache *InMemoryCache,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	activeHandler := queries.NewGetActiveSessionHandler(tracker, logger)
	queryBus.Register(queries.GetActiveSessionQuery{}, &queryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetActiveSessionQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return activeHandler.Handle(ctx, q)
		},
	})

	listHandler := queries.NewListSessionsHandler(tracker, logger)
	queryBus.Register(queries.ListSessionsQuery{}, &queryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListSessionsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listHandler.Handle(ctx, q)
		},
	})

	getSessionHandler := queries.NewGetSessionHandler(tracker, manager, logger)
	queryBus.Register(queries.GetSessionQuery{}, &queryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetSessionQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getSessionHandler.Handle(ctx, q)
		},
	})

	// Graph reads are snapshot-backed and safe to cache briefly
	caching := querybus.NewCachingMiddleware(cache, 5)
	graphHandler := queries.NewGetGraphDataHandler(tracker, logger)
	queryBus.Register(queries.GetGraphDataQuery{}, caching.Wrap(&queryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetGraphDataQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return graphHandler.Handle(ctx, q)
		},
	}))

	nodeHandler := queries.NewGetNodeHandler(tracker, logger)
	queryBus.Register(queries.GetNodeQuery{}, &queryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetNodeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return nodeHandler.Handle(ctx, q)
		},
	})

	return queryBus
}

package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"webtrail/application/ports"
	"webtrail/domain/core/aggregates"
	"webtrail/pkg/observability"
)

const (
	snapshotPK = "GRAPH"
	snapshotSK = "SNAPSHOT#LATEST"
)

// SnapshotStore persists the latest graph snapshot as a single DynamoDB
// item. One item keeps restore trivial; the per-session node cap keeps
// growth slow enough that item size stays manageable.
type SnapshotStore struct {
	client    DynamoDBAPI
	tableName string
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewSnapshotStore creates a snapshot store
func NewSnapshotStore(client DynamoDBAPI, tableName string, tracer *observability.Tracer, logger *zap.Logger) ports.SnapshotStore {
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		tracer:    tracer,
		logger:    logger,
	}
}

type snapshotItem struct {
	PK         string               `dynamodbav:"PK"`
	SK         string               `dynamodbav:"SK"`
	EntityType string               `dynamodbav:"EntityType"`
	Snapshot   *aggregates.Snapshot `dynamodbav:"Snapshot"`
}

// SaveGraphSnapshot persists a point-in-time copy of the graph,
// overwriting the previous one
func (s *SnapshotStore) SaveGraphSnapshot(ctx context.Context, snapshot *aggregates.Snapshot) error {
	av, err := attributevalue.MarshalMap(snapshotItem{
		PK:         snapshotPK,
		SK:         snapshotSK,
		EntityType: "GRAPH_SNAPSHOT",
		Snapshot:   snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.tracer.TraceFunction(ctx, "dynamodb.save_snapshot", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to save graph snapshot",
			zap.Error(err),
			zap.Int("nodes", len(snapshot.Nodes)),
			zap.Int("edges", len(snapshot.Edges)),
		)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Info("graph snapshot saved",
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("edges", len(snapshot.Edges)),
	)
	return nil
}

// LoadGraphSnapshot retrieves the latest persisted snapshot, or nil when
// none has been taken yet
func (s *SnapshotStore) LoadGraphSnapshot(ctx context.Context) (*aggregates.Snapshot, error) {
	var out *dynamodb.GetItemOutput
	err := s.tracer.TraceFunction(ctx, "dynamodb.load_snapshot", func(ctx context.Context) error {
		var err error
		out, err = s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: snapshotPK},
				"SK": &types.AttributeValueMemberS{Value: snapshotSK},
			},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return item.Snapshot, nil
}

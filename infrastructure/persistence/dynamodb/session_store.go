package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"webtrail/application/ports"
	"webtrail/domain/core/entities"
	"webtrail/pkg/observability"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the stores
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

const (
	sessionPK = "SESSIONS"
)

// SessionStore persists browsing sessions in DynamoDB under a single
// partition, sorted by session id (which is time-prefixed and therefore
// chronological).
type SessionStore struct {
	client    DynamoDBAPI
	tableName string
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewSessionStore creates a session store
func NewSessionStore(client DynamoDBAPI, tableName string, tracer *observability.Tracer, logger *zap.Logger) ports.SessionStore {
	return &SessionStore{
		client:    client,
		tableName: tableName,
		tracer:    tracer,
		logger:    logger,
	}
}

// sessionItem is the DynamoDB item structure for a session
type sessionItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	SessionID   string                 `dynamodbav:"SessionID"`
	Title       string                 `dynamodbav:"Title"`
	Description string                 `dynamodbav:"Description,omitempty"`
	StartTime   string                 `dynamodbav:"StartTime"`
	EndTime     string                 `dynamodbav:"EndTime,omitempty"`
	Metadata    map[string]interface{} `dynamodbav:"Metadata,omitempty"`
	NodeIDs     []string               `dynamodbav:"NodeIDs,omitempty"`
}

// SaveSession persists a session (create or update)
func (s *SessionStore) SaveSession(ctx context.Context, session *entities.BrowsingSession) error {
	item := sessionItem{
		PK:          sessionPK,
		SK:          fmt.Sprintf("SESSION#%s", session.ID()),
		EntityType:  "SESSION",
		SessionID:   session.ID(),
		Title:       session.Title(),
		Description: session.Description(),
		StartTime:   session.StartTime().Format(time.RFC3339Nano),
		Metadata:    session.Metadata(),
		NodeIDs:     session.NodeIDs(),
	}
	if end := session.EndTime(); end != nil {
		item.EndTime = end.Format(time.RFC3339Nano)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.tracer.TraceFunction(ctx, "dynamodb.save_session", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to save session",
			zap.Error(err),
			zap.String("session_id", session.ID()),
		)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// LoadSessions retrieves all persisted sessions
func (s *SessionStore) LoadSessions(ctx context.Context) ([]*entities.BrowsingSession, error) {
	var sessions []*entities.BrowsingSession
	var startKey map[string]types.AttributeValue

	for {
		var out *dynamodb.QueryOutput
		err := s.tracer.TraceFunction(ctx, "dynamodb.load_sessions", func(ctx context.Context) error {
			var err error
			out, err = s.client.Query(ctx, &dynamodb.QueryInput{
				TableName:              aws.String(s.tableName),
				KeyConditionExpression: aws.String("PK = :pk"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk": &types.AttributeValueMemberS{Value: sessionPK},
				},
				ExclusiveStartKey: startKey,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load sessions: %w", err)
		}

		for _, raw := range out.Items {
			var item sessionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("skipping unreadable session item", zap.Error(err))
				continue
			}
			session, err := item.toEntity()
			if err != nil {
				s.logger.Warn("skipping session with unusable timestamps",
					zap.String("session_id", item.SessionID),
					zap.Error(err),
				)
				continue
			}
			sessions = append(sessions, session)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return sessions, nil
}

// DeleteSession removes a session
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	err := s.tracer.TraceFunction(ctx, "dynamodb.delete_session", func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: sessionPK},
				"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SESSION#%s", id)},
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (item sessionItem) toEntity() (*entities.BrowsingSession, error) {
	start, err := time.Parse(time.RFC3339Nano, item.StartTime)
	if err != nil {
		return nil, fmt.Errorf("bad start time: %w", err)
	}

	var end *time.Time
	if item.EndTime != "" {
		t, err := time.Parse(time.RFC3339Nano, item.EndTime)
		if err != nil {
			return nil, fmt.Errorf("bad end time: %w", err)
		}
		end = &t
	}

	return entities.ReconstructSession(
		item.SessionID,
		start,
		end,
		item.Title,
		item.Description,
		item.Metadata,
		item.NodeIDs,
	), nil
}

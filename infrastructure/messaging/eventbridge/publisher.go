package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"webtrail/application/ports"
	"webtrail/domain/events"
	"webtrail/pkg/observability"
)

// EventSource identifies this service as the origin of forwarded events
const EventSource = "webtrail.tracker"

// EventBridgeAPI is the subset of the EventBridge client used by the publisher
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher forwards graph domain events to an AWS EventBridge bus so
// downstream consumers (analytics, archival) can react to navigation
// activity without coupling to this service.
type Publisher struct {
	client       EventBridgeAPI
	eventBusName string
	tracer       *observability.Tracer
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client EventBridgeAPI, eventBusName string, tracer *observability.Tracer, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		tracer:       tracer,
		logger:       logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends multiple events. EventBridge caps PutEvents at 10
// entries, so larger batches are chunked.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	const batchSize = 10

	for i := 0; i < len(domainEvents); i += batchSize {
		end := i + batchSize
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.putBatch(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}

	return nil
}

func (p *Publisher) putBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	// Tracks which event each entry came from: marshal failures are
	// skipped, so entry indexes do not line up with domainEvents
	marshaled := make([]events.DomainEvent, 0, len(domainEvents))

	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to marshal event",
				zap.Error(err),
				zap.String("event_type", event.GetEventType()),
			)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(EventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
		marshaled = append(marshaled, event)
	}

	if len(entries) == 0 {
		return nil
	}

	var result *eventbridge.PutEventsOutput
	err := p.tracer.TraceFunction(ctx, "eventbridge.put_events", func(ctx context.Context) error {
		var err error
		result, err = p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("event entry rejected",
					zap.String("event_type", marshaled[i].GetEventType()),
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("events published",
		zap.Int("count", len(entries)),
		zap.String("event_bus", p.eventBusName),
	)

	return nil
}

// NopPublisher drops events; used when no event bus is configured
type NopPublisher struct{}

// Publish implements ports.EventPublisher
func (NopPublisher) Publish(ctx context.Context, event events.DomainEvent) error { return nil }

// PublishBatch implements ports.EventPublisher
func (NopPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error { return nil }

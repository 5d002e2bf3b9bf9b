package eventbridge_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"webtrail/domain/events"
	"webtrail/infrastructure/messaging/eventbridge"
)

var pubT0 = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

type fakeEventBridge struct {
	inputs  []*awseventbridge.PutEventsInput
	outputs []*awseventbridge.PutEventsOutput
	err     error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.outputs) > 0 {
		out := f.outputs[0]
		f.outputs = f.outputs[1:]
		return out, nil
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

// unmarshalableEvent cannot be serialized: channels have no JSON encoding
type unmarshalableEvent struct {
	events.BaseEvent
	Ch chan int `json:"ch"`
}

func nodeCreatedEvent(n int) events.NodeCreated {
	return events.NewNodeCreated(
		fmt.Sprintf("7-a.com-x%d", n), 7, "https://a.com", "link", "session-1", "", pubT0,
	)
}

func TestPublisher_ChunksBatchesOfTen(t *testing.T) {
	client := &fakeEventBridge{}
	pub := eventbridge.NewPublisher(client, "trail-bus", nil, zap.NewNop())

	batch := make([]events.DomainEvent, 0, 23)
	for i := 0; i < 23; i++ {
		batch = append(batch, nodeCreatedEvent(i))
	}

	require.NoError(t, pub.PublishBatch(context.Background(), batch))

	require.Len(t, client.inputs, 3)
	assert.Len(t, client.inputs[0].Entries, 10)
	assert.Len(t, client.inputs[1].Entries, 10)
	assert.Len(t, client.inputs[2].Entries, 3)

	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "trail-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, eventbridge.EventSource, aws.ToString(entry.Source))
	assert.Equal(t, "node.created", aws.ToString(entry.DetailType))
}

func TestPublisher_EmptyBatchIsANoOp(t *testing.T) {
	client := &fakeEventBridge{}
	pub := eventbridge.NewPublisher(client, "trail-bus", nil, zap.NewNop())

	require.NoError(t, pub.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.inputs)
}

func TestPublisher_SkipsUnmarshalableEvents(t *testing.T) {
	client := &fakeEventBridge{}
	pub := eventbridge.NewPublisher(client, "trail-bus", nil, zap.NewNop())

	err := pub.PublishBatch(context.Background(), []events.DomainEvent{
		unmarshalableEvent{BaseEvent: events.BaseEvent{EventType: "broken"}, Ch: make(chan int)},
	})
	require.NoError(t, err)
	assert.Empty(t, client.inputs, "a batch with nothing marshalable never hits the wire")
}

func TestPublisher_RejectedEntryIsLoggedAgainstItsOwnEvent(t *testing.T) {
	client := &fakeEventBridge{
		outputs: []*awseventbridge.PutEventsOutput{{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{},
				{
					ErrorCode:    aws.String("ThrottlingException"),
					ErrorMessage: aws.String("slow down"),
				},
			},
		}},
	}
	core, logs := observer.New(zap.ErrorLevel)
	pub := eventbridge.NewPublisher(client, "trail-bus", nil, zap.New(core))

	// The middle event never marshals, so the second wire entry is the
	// edge event, not the unmarshalable one
	edgeEvent := events.NewEdgeCreated("edge-1", "7-a.com-x1", "7-b.com-x2", "link", pubT0)
	err := pub.PublishBatch(context.Background(), []events.DomainEvent{
		nodeCreatedEvent(1),
		unmarshalableEvent{BaseEvent: events.BaseEvent{EventType: "broken"}, Ch: make(chan int)},
		edgeEvent,
	})
	require.EqualError(t, err, "1 events failed to publish")

	require.Len(t, client.inputs, 1)
	assert.Len(t, client.inputs[0].Entries, 2)

	rejected := logs.FilterMessage("event entry rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "edge.created", rejected[0].ContextMap()["event_type"])
	assert.Equal(t, "ThrottlingException", rejected[0].ContextMap()["error_code"])
}

func TestPublisher_PublishDelegatesToBatch(t *testing.T) {
	client := &fakeEventBridge{}
	pub := eventbridge.NewPublisher(client, "trail-bus", nil, zap.NewNop())

	require.NoError(t, pub.Publish(context.Background(), nodeCreatedEvent(1)))
	require.Len(t, client.inputs, 1)
	assert.Len(t, client.inputs[0].Entries, 1)
}

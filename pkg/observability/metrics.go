package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metric names emitted by the tracking pipeline
const (
	MetricNodesCreated    = "NodesCreated"
	MetricEdgesCreated    = "EdgesCreated"
	MetricSessionsCreated = "SessionsCreated"
	MetricSessionsEnded   = "SessionsEnded"
	MetricIntentsRecorded = "IntentsRecorded"
	MetricIntentsExpired  = "IntentsExpired"
	MetricIntentsMatched  = "IntentsMatched"
)

// CloudWatchAPI is the subset of the CloudWatch client used by Metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes operational counters to CloudWatch. Publishing is
// best-effort: failures are logged and never propagate to the caller.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	enabled   bool
}

// NewMetrics creates a metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger, enabled bool) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		enabled:   enabled,
	}
}

// Increment adds one to a counter metric
func (m *Metrics) Increment(name string) {
	m.Count(name, 1)
}

// Count adds value to a counter metric
func (m *Metrics) Count(name string, value float64) {
	if !m.enabled || m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	}

	go m.put(datum)
}

// RecordDuration records a timing metric in milliseconds
func (m *Metrics) RecordDuration(name string, d time.Duration) {
	if !m.enabled || m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
	}

	go m.put(datum)
}

func (m *Metrics) put(datum types.MetricDatum) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		m.logger.Warn("failed to publish metric",
			zap.String("metric", aws.ToString(datum.MetricName)),
			zap.Error(err),
		)
	}
}

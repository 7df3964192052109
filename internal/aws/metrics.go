package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"
)

// MetricsPublisher reports tracked orders to CloudWatch.
type MetricsPublisher struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetricsPublisher returns a MetricsPublisher writing to namespace.
func NewMetricsPublisher(client CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// OrderTracked records one tracked order and its revenue for a shop.
func (m *MetricsPublisher) OrderTracked(ctx context.Context, shopID string, total decimal.Decimal) error {
	now := m.nowFunc()
	dims := []cwtypes.Dimension{{Name: sdkaws.String("ShopId"), Value: sdkaws.String(shopID)}}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String("OrdersTracked"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
			},
			{
				MetricName: sdkaws.String("OrderRevenue"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitNone,
				Value:      sdkaws.Float64(total.InexactFloat64()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

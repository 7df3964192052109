package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/aws"
	"github.com/imrishuroy/go-divvit-tracking/internal/config"
	"github.com/imrishuroy/go-divvit-tracking/internal/idempotency"
	"github.com/imrishuroy/go-divvit-tracking/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.Log).Named("worker")
	defer zl.Sync()

	if cfg.Tables.Idempotency == "" {
		zl.Fatal("tables.idempotency must be set for the worker")
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWS)
	if err != nil {
		zl.Fatal("failed to init aws clients", zap.Error(err))
	}

	p := NewProcessor(
		idempotency.NewStore(clients.DynamoDB, cfg.Tables.Idempotency, cfg.Tracking.DedupeTTL,
			idempotency.WithLease(cfg.Tracking.DedupeLease),
		),
		aws.NewMetricsPublisher(clients.CloudWatch, cfg.Tracking.MetricsNamespace),
		zl,
	)

	// simulate a single SQS delivery for local testing
	if cfg.App.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"shop_id":"1","order_id":"local-order-1","order":{"orderId":"local-order-1","total":"10.00"}}`
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		if err := p.Handle(ctx, event); err != nil {
			zl.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}

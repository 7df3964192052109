package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/idempotency"
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// OrderMetrics records a tracked order.
type OrderMetrics interface {
	OrderTracked(ctx context.Context, shopID string, total decimal.Decimal) error
}

// Processor records each tracked order exactly once.
type Processor struct {
	dedupe  *idempotency.Store
	metrics OrderMetrics
	logger  *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(dedupe *idempotency.Store, metrics OrderMetrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		dedupe:  dedupe,
		metrics: metrics,
		logger:  logger,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Debug("received sqs batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures land in the DLQ.
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg tracking.OrderTracked
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.ShopID == "" || msg.OrderID == "" {
		return fmt.Errorf("invalid message: shop_id and order_id are required")
	}

	log := p.logger.With(
		zap.String("shop_id", msg.ShopID),
		zap.String("order_id", msg.OrderID),
		zap.String("correlation_id", msg.CorrelationID),
	)

	proceed, err := p.claim(ctx, msg, log)
	if err != nil || !proceed {
		return err
	}

	if err := p.record(ctx, msg); err != nil {
		if ferr := p.dedupe.MarkFailed(ctx, msg.ShopID, msg.OrderID, err.Error()); ferr != nil {
			log.Error("failed to mark order failed", zap.Error(ferr))
		}
		return err
	}

	if err := p.dedupe.MarkDone(ctx, msg.ShopID, msg.OrderID); err != nil {
		return fmt.Errorf("failed to mark order done: %w", err)
	}

	log.Info("order tracked", zap.String("total", msg.Order.Total))
	return nil
}

// errOrderInProgress is returned while another delivery holds the lease on an
// order, so SQS redelivers the message after its visibility timeout.
var errOrderInProgress = errors.New("order in progress")

// claim reports whether this delivery owns the order. Recorded orders are
// swallowed. Failed orders and in-progress orders whose lease expired are
// claimed again.
func (p *Processor) claim(ctx context.Context, msg tracking.OrderTracked, log *zap.Logger) (bool, error) {
	created, err := p.dedupe.CreateIfNotExists(ctx, msg.ShopID, msg.OrderID)
	if err != nil {
		return false, fmt.Errorf("failed to create dedupe record: %w", err)
	}
	if created {
		return true, nil
	}

	existing, err := p.dedupe.Get(ctx, msg.ShopID, msg.OrderID)
	if err != nil {
		return false, fmt.Errorf("failed to read dedupe record: %w", err)
	}
	if existing == nil {
		return false, fmt.Errorf("dedupe record vanished for order=%s", msg.OrderID)
	}

	switch existing.Status {
	case idempotency.StatusDone:
		log.Info("order already tracked")
		return false, nil
	case idempotency.StatusInProgress:
		ok, err := p.dedupe.Reclaim(ctx, msg.ShopID, msg.OrderID)
		if err != nil {
			return false, fmt.Errorf("failed to reclaim order: %w", err)
		}
		if !ok {
			log.Info("duplicate delivery while order in progress")
			return false, fmt.Errorf("order=%s: %w", msg.OrderID, errOrderInProgress)
		}
		log.Warn("reclaimed order with expired lease", zap.Int("attempts", existing.Attempts))
		return true, nil
	case idempotency.StatusFailed:
		ok, err := p.dedupe.Retry(ctx, msg.ShopID, msg.OrderID)
		if err != nil {
			return false, fmt.Errorf("failed to retry order: %w", err)
		}
		if !ok {
			log.Info("another delivery picked up the retry")
		}
		return ok, nil
	default:
		return false, fmt.Errorf("unexpected dedupe status for order=%s: %s", msg.OrderID, existing.Status)
	}
}

func (p *Processor) record(ctx context.Context, msg tracking.OrderTracked) error {
	total, err := decimal.NewFromString(msg.Order.Total)
	if err != nil {
		return fmt.Errorf("invalid order total %q: %w", msg.Order.Total, err)
	}
	if err := p.metrics.OrderTracked(ctx, msg.ShopID, total); err != nil {
		return fmt.Errorf("failed to publish order metrics: %w", err)
	}
	return nil
}

package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-divvit-tracking/internal/aws"
)

// DefaultLease is how long an IN_PROGRESS record belongs to the delivery that
// claimed it before another delivery may reclaim it.
const DefaultLease = 5 * time.Minute

// Store encapsulates dedupe operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long a seen order is remembered
	lease     time.Duration
	nowFunc   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLease sets the IN_PROGRESS lease. Non-positive values are ignored.
func WithLease(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lease = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFunc = now }
}

// NewStore returns a configured Store.
// tableName: DynamoDB table name for dedupe entries.
// ttlWindow: how long entries live (e.g., 48*time.Hour)
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		lease:     DefaultLease,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIfNotExists creates an IN_PROGRESS record for an order if none exists.
// Returns (true, nil) if created, (false, nil) if a record already exists
// (caller should Get to inspect), (false, err) on other errors.
func (s *Store) CreateIfNotExists(ctx context.Context, shopID, orderID string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		Key:        OrderKey(shopID, orderID),
		Status:     StatusInProgress,
		ShopID:     shopID,
		OrderID:    orderID,
		Attempts:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(s.ttlWindow).Unix(),
		LeaseUntil: now.Add(s.lease).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: sdkaws.String("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves the record of an order. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, shopID, orderID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key(OrderKey(shopID, orderID)),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// Retry moves a FAILED record back to IN_PROGRESS and bumps its attempt
// count. Returns (false, nil) if the record is not FAILED.
func (s *Store) Retry(ctx context.Context, shopID, orderID string) (bool, error) {
	return s.claim(ctx, shopID, orderID, "#s = :expected", map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberS{Value: StatusFailed},
	})
}

// Reclaim takes over an IN_PROGRESS record whose lease has expired, which
// happens when the delivery that claimed it died before finishing. Returns
// (false, nil) while the lease is still held or the record is not
// IN_PROGRESS.
func (s *Store) Reclaim(ctx context.Context, shopID, orderID string) (bool, error) {
	return s.claim(ctx, shopID, orderID, "#s = :expected AND lease_until < :now", map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberS{Value: StatusInProgress},
		":now":      &types.AttributeValueMemberN{Value: strconv.FormatInt(s.nowFunc().Unix(), 10)},
	})
}

// claim conditionally moves a record to IN_PROGRESS with a fresh lease.
func (s *Store) claim(ctx context.Context, shopID, orderID, condition string, condValues map[string]types.AttributeValue) (bool, error) {
	now := s.nowFunc()
	values := map[string]types.AttributeValue{
		":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
		":zero":       &types.AttributeValueMemberN{Value: "0"},
		":inc":        &types.AttributeValueMemberN{Value: "1"},
		":ua":         &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":lease":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(s.lease).Unix(), 10)},
	}
	for k, v := range condValues {
		values[k] = v
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       key(OrderKey(shopID, orderID)),
		UpdateExpression:          sdkaws.String("SET #s = :inprogress, attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua, lease_until = :lease"),
		ConditionExpression:       sdkaws.String(condition),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("update item (claim): %w", err)
	}
	return true, nil
}

// MarkDone sets the record of an order to DONE.
func (s *Store) MarkDone(ctx context.Context, shopID, orderID string) error {
	return s.setStatus(ctx, shopID, orderID, StatusDone, "")
}

// MarkFailed sets the record of an order to FAILED with a note.
func (s *Store) MarkFailed(ctx context.Context, shopID, orderID, note string) error {
	return s.setStatus(ctx, shopID, orderID, StatusFailed, note)
}

func (s *Store) setStatus(ctx context.Context, shopID, orderID, status, note string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      key(OrderKey(shopID, orderID)),
		UpdateExpression:         sdkaws.String("SET #s = :s, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":  &types.AttributeValueMemberS{Value: status},
			":n":  &types.AttributeValueMemberS{Value: note},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item (mark %s): %w", status, err)
	}
	return nil
}

func key(k string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: k},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

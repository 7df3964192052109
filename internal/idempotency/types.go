package idempotency

import "time"

// Status values for dedupe entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record marks one order as seen by the order-tracked worker.
type Record struct {
	Key        string    `dynamodbav:"idempotency_key"` // PK, see OrderKey
	Status     string    `dynamodbav:"status"`
	ShopID     string    `dynamodbav:"shop_id,omitempty"`
	OrderID    string    `dynamodbav:"order_id,omitempty"`
	Attempts   int       `dynamodbav:"attempts,omitempty"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
	ExpiresAt  int64     `dynamodbav:"expires_at"`  // TTL epoch seconds
	LeaseUntil int64     `dynamodbav:"lease_until"` // IN_PROGRESS owner lease, epoch seconds
	Note       string    `dynamodbav:"note,omitempty"`
}

// OrderKey is the dedupe key of an order within a shop.
func OrderKey(shopID, orderID string) string {
	return shopID + "#" + orderID
}

package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestCreateIfNotExists_Get_MarkDone_MarkFailed(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "tracked-orders", 48*time.Hour)

	ctx := context.Background()
	shopID, orderID := "1", "20001"
	key := OrderKey(shopID, orderID)

	created, err := s.CreateIfNotExists(ctx, shopID, orderID)
	if err != nil {
		t.Fatalf("CreateIfNotExists error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}

	// second create should return created=false (exists)
	created2, err := s.CreateIfNotExists(ctx, shopID, orderID)
	if err != nil {
		t.Fatalf("second CreateIfNotExists error: %v", err)
	}
	if created2 {
		t.Fatalf("expected created=false on duplicate create")
	}

	rec, err := s.Get(ctx, shopID, orderID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", rec.Status)
	}
	if rec.OrderID != orderID || rec.ShopID != shopID {
		t.Fatalf("record ids mismatch: %+v", rec)
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected expires_at in the future, got %d", rec.ExpiresAt)
	}

	if err := s.MarkDone(ctx, shopID, orderID); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}
	if st, ok := mock.table[key]["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusDone {
		t.Fatalf("status not updated to DONE, got %+v", mock.table[key]["status"])
	}

	if err := s.MarkFailed(ctx, shopID, orderID, "failed-reason"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	item := mock.table[key]
	if st, ok := item["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusFailed {
		t.Fatalf("status not updated to FAILED, got %+v", item["status"])
	}
	if n, ok := item["note"].(*types.AttributeValueMemberS); !ok || n.Value != "failed-reason" {
		t.Fatalf("note not set, got %+v", item["note"])
	}
}

func TestGet_Missing(t *testing.T) {
	s := NewStore(newSimpleMock(), "tracked-orders", time.Hour)

	rec, err := s.Get(context.Background(), "1", "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestRetry_OnlyFromFailed(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "tracked-orders", time.Hour)
	ctx := context.Background()

	if _, err := s.CreateIfNotExists(ctx, "1", "o1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	retried, err := s.Retry(ctx, "1", "o1")
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if retried {
		t.Fatalf("expected no retry while IN_PROGRESS")
	}

	if err := s.MarkFailed(ctx, "1", "o1", "metric publish failed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	retried, err = s.Retry(ctx, "1", "o1")
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if !retried {
		t.Fatalf("expected retry from FAILED")
	}

	rec, _ := s.Get(ctx, "1", "o1")
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS after retry, got %s", rec.Status)
	}
	if rec.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", rec.Attempts)
	}
}

func TestReclaim_AfterLeaseExpires(t *testing.T) {
	mock := newSimpleMock()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(mock, "tracked-orders", time.Hour,
		WithLease(2*time.Minute),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	if _, err := s.CreateIfNotExists(ctx, "1", "o1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, _ := s.Get(ctx, "1", "o1")
	if want := now.Add(2 * time.Minute).Unix(); rec.LeaseUntil != want {
		t.Fatalf("expected lease_until %d, got %d", want, rec.LeaseUntil)
	}

	reclaimed, err := s.Reclaim(ctx, "1", "o1")
	if err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if reclaimed {
		t.Fatalf("expected lease to still be held")
	}

	now = now.Add(3 * time.Minute)
	reclaimed, err = s.Reclaim(ctx, "1", "o1")
	if err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if !reclaimed {
		t.Fatalf("expected reclaim after lease expiry")
	}

	rec, _ = s.Get(ctx, "1", "o1")
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", rec.Status)
	}
	if rec.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", rec.Attempts)
	}
	if want := now.Add(2 * time.Minute).Unix(); rec.LeaseUntil != want {
		t.Fatalf("expected renewed lease_until %d, got %d", want, rec.LeaseUntil)
	}

	// the new lease blocks a second reclaimer
	reclaimed, _ = s.Reclaim(ctx, "1", "o1")
	if reclaimed {
		t.Fatalf("expected renewed lease to block reclaim")
	}
}

func TestReclaim_OnlyFromInProgress(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(newSimpleMock(), "tracked-orders", time.Hour,
		WithLease(time.Minute),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	if _, err := s.CreateIfNotExists(ctx, "1", "o1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.MarkDone(ctx, "1", "o1"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	now = now.Add(time.Hour)
	reclaimed, err := s.Reclaim(ctx, "1", "o1")
	if err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if reclaimed {
		t.Fatalf("expected DONE record to stay DONE")
	}
	rec, _ := s.Get(ctx, "1", "o1")
	if rec.Status != StatusDone {
		t.Fatalf("expected DONE, got %s", rec.Status)
	}
}

package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

func TestEventEnvelope_Valid(t *testing.T) {
	v := New()

	env := EventEnvelope{
		ShopID:  "1",
		Request: tracking.Request{Module: "frontend", Controller: "checkout", Action: "finish"},
		Session: Session{ID: "sess"},
		Order: &tracking.OrderVariables{
			OrderNumber: "20001",
			Basket: tracking.Basket{Content: []tracking.BasketLine{
				{OrderNumber: "SW1", Price: "10"},
			}},
			Amount: decimal.RequireFromString("10"),
		},
	}

	if err := v.Struct(env); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestEventEnvelope_HostSnapshotIsLenient(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		env  EventEnvelope
	}{
		{"empty envelope", EventEnvelope{}},
		{"basket line without ordernumber", EventEnvelope{
			Request: tracking.Request{Module: "frontend"},
			Basket:  &tracking.Basket{Content: []tracking.BasketLine{{OrderNumber: "SW1"}, {Price: "1"}}},
		}},
		{"negative amount", EventEnvelope{
			Request: tracking.Request{Module: "frontend"},
			Order: &tracking.OrderVariables{
				Amount:        decimal.RequireFromString("-1"),
				ShippingCosts: decimal.RequireFromString("-2"),
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Struct(tt.env); err != nil {
				t.Fatalf("expected host snapshot to pass, got %v", err)
			}
		})
	}
}

func TestSession_CustomerID(t *testing.T) {
	var s Session
	if err := json.Unmarshal([]byte(`{"id":"abc","user_data":{"additional":{"user":{"customerId":42}}}}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.SessionID() != "abc" {
		t.Fatalf("session id mismatch: %s", s.SessionID())
	}
	if s.CustomerID() != "42" {
		t.Fatalf("expected customer 42, got %q", s.CustomerID())
	}

	if (Session{ID: "anon"}).CustomerID() != "" {
		t.Fatal("expected anonymous session to have no customer")
	}
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"merchant_site_id":""}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req MerchantSiteIDRequest
	if err := BindAndValidate(c, &req, v); err == nil {
		t.Fatal("expected validation error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestFieldErrors_UsesJSONNames(t *testing.T) {
	v := New()

	err := v.Struct(CategoryTreeRequest{Tree: []tracking.CategoryNode{}})
	fields := FieldErrors(err)

	if got := fields["CategoryTreeRequest.tree"]; got != "min" {
		t.Fatalf("expected min on tree, got %v", fields)
	}
}

package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// StorefrontModule is the request module name of customer-facing pages.
const StorefrontModule = "frontend"

// ConfigStore resolves shop-scoped plugin configuration.
type ConfigStore interface {
	MerchantSiteID(ctx context.Context, shopID string) (string, error)
}

// SessionStore exposes the host session of the current request.
type SessionStore interface {
	SessionID() string
	CustomerID() string
}

// CategoryLookup returns the category tree an article is filed under.
// An empty tree with a nil error means the article has no category.
type CategoryLookup interface {
	CategoryTree(ctx context.Context, articleID string) ([]CategoryNode, error)
}

// Request describes the host route that produced an event.
type Request struct {
	Module     string `json:"module"`
	Controller string `json:"controller"`
	Action     string `json:"action"`
}

// CategoryNode is one level of the host category tree.
type CategoryNode struct {
	ID            string         `json:"id,omitempty" dynamodbav:"id,omitempty"`
	Name          string         `json:"name" dynamodbav:"name"`
	Subcategories []CategoryNode `json:"subcategories,omitempty" dynamodbav:"subcategories,omitempty"`
}

// Text is a string that also accepts JSON numbers, which the host emits
// interchangeably for prices and quantities.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// BasketLine is a single basket row as the host stores it.
type BasketLine struct {
	OrderNumber Text `json:"ordernumber"`
	ArticleName Text `json:"articlename"`
	ArticleID   Text `json:"articleID"`
	Price       Text `json:"price"`
	Quantity    Text `json:"quantity"`
}

// Basket is the host basket snapshot for the current session.
type Basket struct {
	Content      []BasketLine `json:"content"`
	CurrencyName string       `json:"sCurrencyName"`
}

// Payment is the payment method chosen at checkout.
type Payment struct {
	Name string `json:"name"`
}

// OrderVariables is the host's order snapshot kept in session after checkout.
type OrderVariables struct {
	OrderNumber   string          `json:"sOrderNumber"`
	Basket        Basket          `json:"sBasket"`
	Amount        decimal.Decimal `json:"sAmount"`
	ShippingCosts decimal.Decimal `json:"sShippingcosts"`
	Payment       Payment         `json:"sPayment"`
}

// Product is a basket or order line in tracking form.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Quantity string   `json:"quantity"`
	Category []string `json:"category,omitempty"`
}

// Customer identifies a logged in shopper.
type Customer struct {
	CustomerID string `json:"customerId"`
}

// PageContext is injected into every storefront page.
type PageContext struct {
	MerchantSiteID string    `json:"merchantSiteId"`
	Customer       *Customer `json:"customer"`
}

// CartPayload describes the basket after a cart mutation.
type CartPayload struct {
	CartID   string    `json:"cartId"`
	Products []Product `json:"products"`
}

// OrderCustomer wraps the customer identity fields of an order.
type OrderCustomer struct {
	IDFields *Customer `json:"idFields"`
}

// OrderPayload describes a completed checkout.
type OrderPayload struct {
	OrderID         string        `json:"orderId"`
	Products        []Product     `json:"products"`
	Total           string        `json:"total"`
	Shipping        string        `json:"shipping"`
	PaymentMethod   string        `json:"paymentMethod"`
	Customer        OrderCustomer `json:"customer"`
	Voucher         string        `json:"voucher,omitempty"`
	VoucherDiscount string        `json:"voucherDiscount,omitempty"`
}

// NormalizePrice rewrites a locale formatted price to use "." as decimal
// separator.
func NormalizePrice(price string) string {
	return strings.ReplaceAll(price, ",", ".")
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// OrderTracked is queued for every completed checkout so the worker can
// record it once.
type OrderTracked struct {
	ShopID        string       `json:"shop_id"`
	OrderID       string       `json:"order_id"`
	CorrelationID string       `json:"correlation_id,omitempty"`
	Order         OrderPayload `json:"order"`
}

package validation

import (
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// UserData mirrors the host's user data lookup; only the customer id is read.
type UserData struct {
	Additional struct {
		User struct {
			CustomerID tracking.Text `json:"customerId"`
		} `json:"user"`
	} `json:"additional"`
}

// Session is the host session snapshot sent with every event.
type Session struct {
	ID       string    `json:"id"`
	UserData *UserData `json:"user_data,omitempty"`
}

// SessionID implements tracking.SessionStore.
func (s Session) SessionID() string { return s.ID }

// CustomerID implements tracking.SessionStore.
func (s Session) CustomerID() string {
	if s.UserData == nil {
		return ""
	}
	return s.UserData.Additional.User.CustomerID.String()
}

// EventEnvelope is the payload for POST /events/:event
type EventEnvelope struct {
	ShopID  string                   `json:"shop_id"`          // defaults to the configured shop
	Request tracking.Request         `json:"request"`          // host route
	Session Session                  `json:"session"`          // session id and user data
	Basket  *tracking.Basket         `json:"basket,omitempty"` // cart events
	Order   *tracking.OrderVariables `json:"order,omitempty"`  // checkout finish
}

// MerchantSiteIDRequest is the payload for PUT /config/:shop/merchant-site-id
type MerchantSiteIDRequest struct {
	MerchantSiteID string `json:"merchant_site_id" validate:"required,max=128"`
}

// CategoryTreeRequest is the payload for PUT /categories/:id
type CategoryTreeRequest struct {
	Tree []tracking.CategoryNode `json:"tree" validate:"required,min=1,dive"`
}

// ArticleCategoryRequest is the payload for PUT /articles/:id/category
type ArticleCategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
}

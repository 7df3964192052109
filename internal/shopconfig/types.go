package shopconfig

import "time"

// Element scopes.
const (
	ScopeLocale = 0
	ScopeShop   = 1
)

// FormShopID is the partition holding element definitions rather than
// per-shop values.
const FormShopID = "_form"

// Element is a plugin configuration field. Definitions live under
// FormShopID; per-shop values share the same name under the shop's id.
type Element struct {
	ShopID     string    `dynamodbav:"shop_id"` // PK
	Name       string    `dynamodbav:"name"`    // SK
	Type       string    `dynamodbav:"type,omitempty"`
	Label      string    `dynamodbav:"label,omitempty"`
	Value      string    `dynamodbav:"value,omitempty"`
	Required   bool      `dynamodbav:"required,omitempty"`
	Scope      int       `dynamodbav:"scope,omitempty"`
	ParentForm string    `dynamodbav:"parent_form,omitempty"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

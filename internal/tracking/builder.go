package tracking

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Builder shapes host basket, order and session state into tracking payloads.
// Missing configuration or category data degrades to omitted fields; the
// builder never returns an error to its caller.
type Builder struct {
	config     ConfigStore
	categories CategoryLookup
	logger     *zap.Logger
}

// NewBuilder returns a Builder. A nil logger disables logging.
func NewBuilder(config ConfigStore, categories CategoryLookup, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		config:     config,
		categories: categories,
		logger:     logger,
	}
}

// BuildPageContext returns the merchant site id and customer for a storefront
// page, or nil when tracking is disabled for this request.
func (b *Builder) BuildPageContext(ctx context.Context, req Request, shopID string, session SessionStore) *PageContext {
	if req.Module != StorefrontModule {
		return nil
	}

	merchantSiteID := b.MerchantSiteID(ctx, shopID)
	if merchantSiteID == "" {
		return nil
	}

	return &PageContext{
		MerchantSiteID: merchantSiteID,
		Customer:       CustomerFromSession(session),
	}
}

// MerchantSiteID returns the configured merchant site id for a shop, or an
// empty string when none is set or the lookup fails.
func (b *Builder) MerchantSiteID(ctx context.Context, shopID string) string {
	if b.config == nil {
		return ""
	}
	id, err := b.config.MerchantSiteID(ctx, shopID)
	if err != nil {
		b.logger.Warn("merchant site id lookup failed",
			zap.String("shop_id", shopID),
			zap.Error(err),
		)
		return ""
	}
	return id
}

// BuildCartPayload maps every basket line to a product.
func (b *Builder) BuildCartPayload(ctx context.Context, sessionID string, basket Basket) CartPayload {
	return CartPayload{
		CartID:   sessionID,
		Products: b.products(ctx, basket),
	}
}

// BuildOrderPayload maps a completed order. The first line with a negative
// price is reported as the voucher; any further discount lines are ignored.
func (b *Builder) BuildOrderPayload(ctx context.Context, order OrderVariables, session SessionStore) OrderPayload {
	payload := OrderPayload{
		OrderID:       order.OrderNumber,
		Products:      b.products(ctx, order.Basket),
		Total:         FormatAmount(order.Amount),
		Shipping:      FormatAmount(order.ShippingCosts),
		PaymentMethod: order.Payment.Name,
		Customer: OrderCustomer{
			IDFields: CustomerFromSession(session),
		},
	}

	if voucher, ok := FirstVoucher(payload.Products); ok {
		payload.Voucher = voucher.ID
		payload.VoucherDiscount = voucher.Price
	}

	return payload
}

func (b *Builder) products(ctx context.Context, basket Basket) []Product {
	products := make([]Product, 0, len(basket.Content))
	for _, line := range basket.Content {
		item := Product{
			ID:       line.OrderNumber.String(),
			Name:     line.ArticleName.String(),
			Price:    NormalizePrice(line.Price.String()),
			Currency: basket.CurrencyName,
			Quantity: line.Quantity.String(),
		}
		item.Category = b.categoryPath(ctx, line.ArticleID.String())
		products = append(products, item)
	}
	return products
}

func (b *Builder) categoryPath(ctx context.Context, articleID string) []string {
	if b.categories == nil || articleID == "" {
		return nil
	}
	tree, err := b.categories.CategoryTree(ctx, articleID)
	if err != nil {
		b.logger.Debug("category lookup failed",
			zap.String("article_id", articleID),
			zap.Error(err),
		)
		return nil
	}
	return ComputeCategoryPath(tree)
}

// FirstVoucher returns the first product whose price is negative.
func FirstVoucher(products []Product) (Product, bool) {
	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			continue
		}
		if price.IsNegative() {
			return p, true
		}
	}
	return Product{}, false
}

// CustomerFromSession returns the logged in customer, or nil for anonymous
// sessions.
func CustomerFromSession(session SessionStore) *Customer {
	if session == nil {
		return nil
	}
	id := session.CustomerID()
	if id == "" {
		return nil
	}
	return &Customer{CustomerID: id}
}

package plugin

import (
	"context"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/events"
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// onPostDispatch injects the merchant site id and customer into storefront
// pages.
func (p *Plugin) onPostDispatch(ctx context.Context, args *events.Args) error {
	page := p.builder.BuildPageContext(ctx, args.Request, args.ShopID, args.Session)
	if page == nil {
		p.metrics.Skipped("page_disabled")
		return nil
	}

	args.View.Assign("merchantSiteId", page.MerchantSiteID)
	args.View.Assign("customer", page.Customer)
	args.View.AddTemplateDir(p.viewsDir)
	args.View.ExtendsTemplate(TrackingTemplate)
	p.metrics.PayloadBuilt("page")
	return nil
}

// onCheckoutCart assigns the basket after it was shown or changed.
func (p *Plugin) onCheckoutCart(ctx context.Context, args *events.Args) error {
	var basket tracking.Basket
	if args.Basket != nil {
		basket = *args.Basket
	}
	var sessionID string
	if args.Session != nil {
		sessionID = args.Session.SessionID()
	}

	args.View.Assign("basket", p.builder.BuildCartPayload(ctx, sessionID, basket))
	p.metrics.PayloadBuilt("cart")
	return nil
}

// onCheckoutFinish assigns the completed order on the checkout finish page
// and queues it for the order-tracked worker.
func (p *Plugin) onCheckoutFinish(ctx context.Context, args *events.Args) error {
	if args.Request.Action != "finish" {
		return nil
	}
	if args.Order == nil {
		p.logger.Warn("checkout finished without order variables",
			zap.String("request_id", args.RequestID),
			zap.String("shop_id", args.ShopID),
		)
		p.metrics.Skipped("missing_order")
		return nil
	}

	order := p.builder.BuildOrderPayload(ctx, *args.Order, args.Session)
	args.View.Assign("order", map[string]tracking.OrderPayload{"order": order})
	p.metrics.PayloadBuilt("order")

	p.publish(ctx, args, order)
	return nil
}

func (p *Plugin) publish(ctx context.Context, args *events.Args, order tracking.OrderPayload) {
	if p.publisher == nil {
		return
	}
	if order.OrderID == "" {
		p.logger.Warn("order without number not queued",
			zap.String("request_id", args.RequestID),
			zap.String("shop_id", args.ShopID),
		)
		p.metrics.Skipped("missing_order_number")
		return
	}
	msg := tracking.OrderTracked{
		ShopID:        args.ShopID,
		OrderID:       order.OrderID,
		CorrelationID: args.RequestID,
		Order:         order,
	}
	attrs := map[string]string{
		"shop_id":        args.ShopID,
		"order_id":       order.OrderID,
		"correlation_id": args.RequestID,
	}
	if err := p.publisher.SendOrderMessage(ctx, msg, attrs); err != nil {
		p.logger.Error("enqueue order tracked failed",
			zap.String("order_id", order.OrderID),
			zap.String("request_id", args.RequestID),
			zap.Error(err),
		)
	}
}

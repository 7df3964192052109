package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/events"
	"github.com/imrishuroy/go-divvit-tracking/internal/logger"
	"github.com/imrishuroy/go-divvit-tracking/internal/validation"
)

// dispatchEvent runs the subscribers of a host event and returns what the
// storefront should render. Handler failures are logged but still answered
// with 200 so tracking never breaks the page.
func (h *handler) dispatchEvent(c *gin.Context) {
	event := c.Param("event")
	if !events.Known(event) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_event", "event": event})
		return
	}

	var env validation.EventEnvelope
	if err := validation.BindAndValidate(c, &env, h.validator); err != nil {
		return
	}

	shopID := env.ShopID
	if shopID == "" {
		shopID = h.cfg.DefaultShopID
	}

	args := &events.Args{
		Request:   env.Request,
		RequestID: logger.RequestIDFrom(c),
		ShopID:    shopID,
		Session:   env.Session,
		Basket:    env.Basket,
		Order:     env.Order,
		View:      events.NewView(),
	}

	err := h.cfg.Dispatcher.Dispatch(c.Request.Context(), event, args)
	h.cfg.Metrics.Dispatched(event, err)
	if err != nil {
		logger.FromContext(c, h.logger).Error("event dispatch failed",
			zap.String("event", event),
			zap.String("shop_id", shopID),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, args.View.Render())
}

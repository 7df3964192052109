package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/categories"
	"github.com/imrishuroy/go-divvit-tracking/internal/events"
	"github.com/imrishuroy/go-divvit-tracking/internal/metrics"
	"github.com/imrishuroy/go-divvit-tracking/internal/plugin"
	"github.com/imrishuroy/go-divvit-tracking/internal/shopconfig"
	"github.com/imrishuroy/go-divvit-tracking/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP handlers. ShopConfig,
// Categories, CategoryCache and Gatherer are optional; their routes are only
// registered when set.
type HandlerConfig struct {
	Dispatcher    *events.Dispatcher
	Plugin        *plugin.Plugin
	ShopConfig    *shopconfig.Store
	Categories    *categories.Store
	CategoryCache *categories.RedisCache
	DefaultShopID string
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        *zap.Logger
}

type handler struct {
	cfg       HandlerConfig
	validator *validatorv10.Validate
	logger    *zap.Logger
}

// RegisterRoutes registers the health, event, plugin and admin routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &handler{
		cfg:       cfg,
		validator: validation.New(),
		logger:    cfg.Logger,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "plugin_active": cfg.Plugin.Active()})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/events/:event", h.dispatchEvent)

	p := r.Group("/plugin")
	p.GET("/info", h.pluginInfo)
	p.POST("/install", h.installPlugin)
	p.POST("/uninstall", h.uninstallPlugin)

	if cfg.ShopConfig != nil {
		r.PUT("/config/:shop/merchant-site-id", h.setMerchantSiteID)
	}
	if cfg.Categories != nil {
		r.PUT("/categories/:id", h.putCategoryTree)
		r.PUT("/articles/:id/category", h.putArticleCategory)
	}
}

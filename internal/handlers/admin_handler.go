package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/logger"
	"github.com/imrishuroy/go-divvit-tracking/internal/shopconfig"
	"github.com/imrishuroy/go-divvit-tracking/internal/validation"
)

func (h *handler) setMerchantSiteID(c *gin.Context) {
	shopID := c.Param("shop")

	var req validation.MerchantSiteIDRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	err := h.cfg.ShopConfig.SetValue(c.Request.Context(), shopID, shopconfig.MerchantSiteIDElement, req.MerchantSiteID)
	if errors.Is(err, shopconfig.ErrUnknownElement) {
		c.JSON(http.StatusConflict, gin.H{"error": "plugin_not_installed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "config_write_failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shop_id": shopID, "merchant_site_id": req.MerchantSiteID})
}

func (h *handler) putCategoryTree(c *gin.Context) {
	categoryID := c.Param("id")

	var req validation.CategoryTreeRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	ctx := c.Request.Context()
	if err := h.cfg.Categories.PutTree(ctx, categoryID, req.Tree); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "category_write_failed", "detail": err.Error()})
		return
	}
	if h.cfg.CategoryCache != nil {
		if err := h.cfg.CategoryCache.InvalidateCategory(ctx, categoryID); err != nil {
			logger.FromContext(c, h.logger).Warn("category cache invalidation failed",
				zap.String("category_id", categoryID),
				zap.Error(err),
			)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) putArticleCategory(c *gin.Context) {
	ctx := c.Request.Context()
	articleID := c.Param("id")

	var req validation.ArticleCategoryRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	if err := h.cfg.Categories.PutArticleCategory(ctx, articleID, req.CategoryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "category_write_failed", "detail": err.Error()})
		return
	}
	if h.cfg.CategoryCache != nil {
		if err := h.cfg.CategoryCache.InvalidateArticle(ctx, articleID); err != nil {
			logger.FromContext(c, h.logger).Warn("category cache invalidation failed",
				zap.String("article_id", articleID),
				zap.Error(err),
			)
		}
	}
	c.Status(http.StatusNoContent)
}

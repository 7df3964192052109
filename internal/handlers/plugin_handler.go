package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) pluginInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Plugin.Info())
}

func (h *handler) installPlugin(c *gin.Context) {
	if err := h.cfg.Plugin.Install(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "install_failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.cfg.Plugin.Info())
}

func (h *handler) uninstallPlugin(c *gin.Context) {
	if err := h.cfg.Plugin.Uninstall(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "uninstall_failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.cfg.Plugin.Info())
}

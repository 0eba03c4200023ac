package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrenospy/terrenospy/internal/config"
)

// SiteHandler exposes the public site configuration the front end needs:
// the WhatsApp contact number and the unsigned Cloudinary upload settings.
// Secrets never appear here.
type SiteHandler struct {
	cfg *config.Config
}

func NewSiteHandler(cfg *config.Config) *SiteHandler {
	return &SiteHandler{cfg: cfg}
}

func (h *SiteHandler) Register(r *gin.Engine) {
	r.GET("/api/config", h.Get)
}

func (h *SiteHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"whatsapp": h.cfg.Admin.Whatsapp,
		"cloudinary": gin.H{
			"cloudName":    h.cfg.Cloudinary.CloudName,
			"uploadPreset": h.cfg.Cloudinary.UploadPreset,
			"folder":       h.cfg.Cloudinary.Folder,
		},
	})
}

package handlers

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PresignedUploadTTL bounds how long an upload URL stays valid.
const PresignedUploadTTL = 15 * time.Minute

// Presigner issues direct-upload URLs.
type Presigner interface {
	PresignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// UploadHandler hands out presigned object-store URLs. A nil store answers 503.
type UploadHandler struct {
	store Presigner
	now   func() time.Time
}

func NewUploadHandler(store Presigner) *UploadHandler {
	return &UploadHandler{store: store, now: time.Now}
}

func (h *UploadHandler) Register(rg gin.IRouter) {
	rg.POST("/upload/presigned-url", h.PresignedURL)
}

var uploadTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}

func (h *UploadHandler) PresignedURL(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return
	}
	var req struct {
		Filename    string `json:"filename" binding:"required"`
		ContentType string `json:"contentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and contentType are required"})
		return
	}
	ct := strings.ToLower(req.ContentType)
	allowed := false
	for _, t := range uploadTypes {
		if ct == t {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content type " + req.ContentType})
		return
	}

	key := "uploads/" + middleware.UserID(c) + "/" + uuid.NewString() + strings.ToLower(path.Ext(path.Base(req.Filename)))
	url, err := h.store.PresignedPutURL(c.Request.Context(), key, PresignedUploadTTL)
	if err != nil {
		logger.Errorf("presign %s: %v", key, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not create upload URL"})
		return
	}
	c.JSON(http.StatusOK, models.PresignedUpload{URL: url, Key: key, ExpiresAt: h.now().Add(PresignedUploadTTL).UTC()})
}

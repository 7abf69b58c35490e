package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
	"github.com/cityassist/cityassist/go-web/internal/reports/service"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// MaxImageBytes bounds an uploaded report photo.
const MaxImageBytes = 10 << 20

// RegisterRoutes mounts /reports on an authenticated group. Status changes
// additionally pass through operator.
func RegisterRoutes(r gin.IRouter, svc service.Service, operator gin.HandlerFunc) {
	h := &handler{svc: svc}
	r.POST("/reports", h.create)
	r.GET("/reports", h.list)
	r.GET("/reports/:id", h.get)
	r.GET("/reports/:id/timeline", h.timeline)
	r.PATCH("/reports/:id/status", operator, h.updateStatus)
}

type handler struct {
	svc service.Service
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reports.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, reports.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.Is(err, reports.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseLocation reads latitude/longitude; both blank means no location.
func parseLocation(lat, lng string) (*models.Location, bool) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return nil, true
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	return &models.Location{Lat: la, Lng: ln}, true
}

func (h *handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+1<<20)
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart/form-data"})
		return
	}
	loc, ok := parseLocation(c.PostForm("latitude"), c.PostForm("longitude"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be numbers"})
		return
	}
	in := service.Input{
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Location:    loc,
	}

	fh, err := c.FormFile("image")
	if err == nil {
		if fh.Size > MaxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image must be 10 MB or smaller"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		defer f.Close()
		in.Image = &service.Image{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Size: fh.Size, Data: f}
	} else if !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image part"})
		return
	}

	r, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	out, err := h.svc.List(c.Request.Context(), middleware.UserID(c), reports.Filter{Status: c.Query("status"), Page: page, Size: size})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) timeline(c *gin.Context) {
	tl, err := h.svc.Timeline(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

func (h *handler) updateStatus(c *gin.Context) {
	var req struct {
		Status  string `json:"status" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/users"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// UsersHandler serves the signed-in user's profile and preferences.
type UsersHandler struct {
	svc *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler { return &UsersHandler{svc: svc} }

// Register mounts /users on an authenticated group.
func (h *UsersHandler) Register(rg gin.IRouter) {
	u := rg.Group("/users")
	u.GET("/profile", h.GetProfile)
	u.PUT("/profile", h.UpdateProfile)
	u.GET("/preferences", h.GetPreferences)
	u.PUT("/preferences", h.UpdatePreferences)
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, users.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *UsersHandler) GetProfile(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), upd)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UsersHandler) GetPreferences(c *gin.Context) {
	p, err := h.svc.Preferences(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *UsersHandler) UpdatePreferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.UpdatePreferences(c.Request.Context(), middleware.UserID(c), prefs)
	if err != nil {
		writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

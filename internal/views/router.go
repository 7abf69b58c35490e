package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
}

// Register mounts every view on r. Public routes are the login and
// onboarding flows; everything else requires a session.
func (h *Handler) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	scoped := r.Group("/", h.deviceScope())
	scoped.GET("/login", h.LoginPage)
	scoped.POST("/login", h.Login)
	scoped.GET("/onboarding", h.OnboardingPage)
	scoped.POST("/onboarding", h.Onboarding)

	protected := scoped.Group("/", requireAuth())
	protected.GET("/", h.Home)
	protected.GET("/map", h.Map)
	protected.GET("/report", h.ReportPage)
	protected.POST("/report", h.SubmitReport)
	protected.GET("/report/:id", h.ReportDetail)
	protected.GET("/notifications", h.Notifications)
	protected.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	protected.POST("/notifications/:id/read", h.MarkNotificationRead)
	protected.GET("/services", h.Services)
	protected.POST("/services/subscribe", h.SubscribeUtility)
	protected.GET("/profile", h.Profile)
	protected.POST("/profile", h.UpdateProfile)
	protected.POST("/profile/preferences", h.UpdatePreferences)
	protected.POST("/logout", h.Logout)
	return nil
}

// NewRouter returns a gin engine with request logging, recovery and all views.
func NewRouter(h *Handler) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if err := h.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/citydata"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// ProfileLookup returns the health profile used to personalise air-quality advice.
type ProfileLookup func(ctx context.Context, userID string) (*models.HealthProfile, error)

// CityHandler serves notifications, routing, local services and alerts.
type CityHandler struct {
	Notifications citydata.Notifications
	Subscriptions *citydata.Subscriptions
	Router        *citydata.Router
	Traffic       *citydata.Traffic
	Directory     *citydata.Directory
	Outages       *citydata.OutageBoard
	AQI           citydata.AQISource
	Profile       ProfileLookup
	Now           func() time.Time
}

// Register mounts the city endpoints on an authenticated group. Outage
// reports additionally pass through operator.
func (h *CityHandler) Register(rg gin.IRouter, operator gin.HandlerFunc) {
	n := rg.Group("/notifications")
	n.GET("", h.ListNotifications)
	n.PUT("/read-all", h.MarkAllRead)
	n.PUT("/:id/read", h.MarkRead)
	n.POST("/subscribe", h.SubscribeNotifications)

	r := rg.Group("/routing")
	r.POST("/route", h.Route)
	r.GET("/traffic", h.TrafficInfo)
	r.POST("/alternate", h.AlternateRoutes)

	s := rg.Group("/services")
	s.GET("/local", h.LocalServices)
	s.GET("/outages", h.ListOutages)
	s.POST("/outages", operator, h.ReportOutage)
	s.POST("/subscribe", h.SubscribeUtility)

	a := rg.Group("/alerts")
	a.GET("/aqi", h.AirQuality)
	a.POST("/health", h.HealthRecommendations)
}

func (h *CityHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func internalError(c *gin.Context, what string, err error) {
	logger.Errorf("%s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// queryLocation parses lat/lng. Neither set yields nil; a partial or
// out-of-range pair is an error.
func queryLocation(c *gin.Context) (*models.Location, error) {
	lat, lng := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lng"))
	if lat == "" && lng == "" {
		return nil, nil
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return nil, errors.New("lat and lng must both be numbers")
	}
	if la < -90 || la > 90 || ln < -180 || ln > 180 {
		return nil, errors.New("lat/lng out of range")
	}
	return &models.Location{Lat: la, Lng: ln}, nil
}

func (h *CityHandler) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	q := citydata.NotificationQuery{UnreadOnly: c.Query("unread") == "true", Page: page, Size: size}
	out, err := h.Notifications.List(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		internalError(c, "list notifications", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CityHandler) MarkRead(c *gin.Context) {
	err := h.Notifications.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, citydata.ErrNotificationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if err != nil {
		internalError(c, "mark notification read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CityHandler) MarkAllRead(c *gin.Context) {
	if err := h.Notifications.MarkAllRead(c.Request.Context(), middleware.UserID(c)); err != nil {
		internalError(c, "mark all notifications read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

var notificationChannels = []string{"push", "email", "sms", "in_app"}

func (h *CityHandler) SubscribeNotifications(c *gin.Context) {
	var sub models.NotificationSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub.Topic = strings.TrimSpace(sub.Topic)
	if sub.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}
	if sub.Channel == "" {
		sub.Channel = "in_app"
	}
	if !slices.Contains(notificationChannels, sub.Channel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported channel " + sub.Channel})
		return
	}
	topic := "notify:" + sub.Topic + ":" + sub.Channel
	if err := h.Subscriptions.Add(c.Request.Context(), middleware.UserID(c), topic); err != nil {
		internalError(c, "subscribe", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": topic})
}

type routeRequest struct {
	Origin      *models.Location         `json:"origin" binding:"required"`
	Destination *models.Location         `json:"destination" binding:"required"`
	Preferences *models.RoutePreferences `json:"preferences"`
}

func (h *CityHandler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}
	route, err := h.Router.Route(c.Request.Context(), *req.Origin, *req.Destination, req.Preferences)
	if errors.Is(err, citydata.ErrUnknownMode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, "route", err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *CityHandler) AlternateRoutes(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}
	c.JSON(http.StatusOK, h.Router.Alternates(c.Request.Context(), *req.Origin, *req.Destination))
}

func (h *CityHandler) TrafficInfo(c *gin.Context) {
	var b models.Bounds
	if err := c.ShouldBindQuery(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "north, south, east and west must be numbers"})
		return
	}
	if b.North < b.South || b.East < b.West {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounds"})
		return
	}
	c.JSON(http.StatusOK, h.Traffic.In(b))
}

func (h *CityHandler) LocalServices(c *gin.Context) {
	loc, err := queryLocation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Directory.Local(loc, c.Query("category")))
}

func (h *CityHandler) ListOutages(c *gin.Context) {
	c.JSON(http.StatusOK, h.Outages.Active())
}

type outageRequest struct {
	Utility       string     `json:"utility" binding:"required"`
	Zone          string     `json:"zone" binding:"required"`
	StartedAt     *time.Time `json:"startedAt"`
	SevereWeather bool       `json:"severeWeather"`
}

// ReportOutage opens an outage and tells subscribers of that utility.
func (h *CityHandler) ReportOutage(c *gin.Context) {
	var req outageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "utility and zone are required"})
		return
	}
	if !slices.Contains(citydata.Utilities, strings.ToLower(req.Utility)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown utility " + req.Utility})
		return
	}
	started := h.now()
	if req.StartedAt != nil {
		started = *req.StartedAt
	}
	c.JSON(http.StatusCreated, h.Outages.Report(req.Utility, req.Zone, started, req.SevereWeather))
}

func (h *CityHandler) SubscribeUtility(c *gin.Context) {
	var req struct {
		Utility string `json:"utility"`
		Zone    string `json:"zone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	utility := strings.ToLower(strings.TrimSpace(req.Utility))
	zone := strings.TrimSpace(req.Zone)
	if !slices.Contains(citydata.Utilities, utility) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "utility must be one of water, electricity, gas"})
		return
	}
	if zone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zone is required"})
		return
	}
	topic := "utility:" + utility + ":" + zone
	if err := h.Subscriptions.Add(c.Request.Context(), middleware.UserID(c), topic); err != nil {
		internalError(c, "subscribe utility", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": topic})
}

func (h *CityHandler) profile(c *gin.Context) *models.HealthProfile {
	if h.Profile == nil {
		return nil
	}
	p, err := h.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Warnf("health profile for %s: %v", middleware.UserID(c), err)
		return nil
	}
	return p
}

// AirQuality reports the index at lat/lng, or at the city centre when unset.
func (h *CityHandler) AirQuality(c *gin.Context) {
	loc, err := queryLocation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if loc == nil {
		centre := models.CityCentre
		loc = &centre
	}
	aqi, err := h.AQI.AQI(c.Request.Context(), *loc)
	if err != nil {
		internalError(c, "aqi", err)
		return
	}
	c.JSON(http.StatusOK, citydata.Reading(aqi, *loc, h.profile(c)))
}

func (h *CityHandler) HealthRecommendations(c *gin.Context) {
	var p models.HealthProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc, err := queryLocation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if loc == nil {
		centre := models.CityCentre
		loc = &centre
	}
	aqi, err := h.AQI.AQI(c.Request.Context(), *loc)
	if err != nil {
		internalError(c, "aqi", err)
		return
	}
	c.JSON(http.StatusOK, citydata.HealthAlerts(aqi, *loc, p, h.now()))
}
